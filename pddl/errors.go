package pddl

import (
	"errors"
	"fmt"
)

var (
	// ErrUnnamedObject is returned when an object declaration lacks a name.
	ErrUnnamedObject = errors.New("unnamed object")

	// ErrNotAFact is returned when an expression is not a ground atom.
	ErrNotAFact = errors.New("expression is not a fact")

	// ErrUnknownObject is returned when a name does not resolve to an instance.
	ErrUnknownObject = errors.New("unknown object")

	// ErrMalformedExpression is returned when an operator has the wrong number
	// of arguments.
	ErrMalformedExpression = errors.New("malformed expression")
)

// checkArity fails when a logical operator of c has the wrong number of
// arguments. Atoms and variadic operators always pass.
func checkArity(c Compound) error {
	n := -1
	switch c.Word {
	case OpNot:
		n = 1
	case OpImply, OpWhen, OpForall, OpExists:
		n = 2
	}
	if n >= 0 && len(c.Args) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrMalformedExpression, c.Word, n, len(c.Args))
	}
	return nil
}

// UnsupportedOperatorError is returned when an operation meets an operator it cannot handle.
type UnsupportedOperatorError struct {
	Operation string
	Operator  string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("%s does not support operator %q", e.Operation, e.Operator)
}

// ParseError describes malformed PDDL or plan text.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}
