package domain

import (
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/planning"
)

// Name is the PDDL name of the default domain.
const Name = "interaction"

// Default returns the domain declaring every type, constant, predicate and
// action of this package.
func Default() planning.Domain {
	return New(Actions()...)
}

// New returns the default vocabulary with the given actions.
func New(actions ...ActionDeclaration) planning.Domain {
	schemas := make([]pddl.Action, len(actions))
	for i, a := range actions {
		schemas[i] = a.Schema
	}
	return planning.Domain{
		Name:       Name,
		Types:      Types(),
		Constants:  Constants(),
		Predicates: Predicates(),
		Actions:    schemas,
	}
}
