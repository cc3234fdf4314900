package report

import "fmt"

var (
	// ErrNotFound is returned when no report with the given id exists in
	// the underlying store.
	ErrNotFound = fmt.Errorf("report not found")
)
