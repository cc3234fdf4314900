// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing world states and driving perception.
// They are not intended for production usage.
package testutil
