package testutil

import (
	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

// StateBuilder helps construct world states with fluent chaining for tests.
// Example:
//
//	s := NewStateBuilder().Human("alice").Engaged("alice").Build()
type StateBuilder struct {
	objects []pddl.Instance
	facts   []pddl.Fact
}

// NewStateBuilder creates a builder whose state already holds self.
func NewStateBuilder() *StateBuilder {
	return &StateBuilder{objects: []pddl.Instance{domain.Self}}
}

// Object declares objects (chainable).
func (b *StateBuilder) Object(objs ...pddl.Instance) *StateBuilder {
	b.objects = append(b.objects, objs...)
	return b
}

// Human declares a human by name (chainable).
func (b *StateBuilder) Human(name string) *StateBuilder {
	return b.Object(domain.Human.Instance(name))
}

// Fact adds facts and the objects they mention (chainable).
func (b *StateBuilder) Fact(facts ...pddl.Fact) *StateBuilder {
	b.facts = append(b.facts, facts...)
	return b
}

// Engaged marks the named human as engaged by self (chainable).
func (b *StateBuilder) Engaged(name string) *StateBuilder {
	h := domain.Human.Instance(name)
	return b.Fact(domain.CanBeEngaged.Of(h), domain.Engages.Of(domain.Self, h))
}

// Build returns the state.
func (b *StateBuilder) Build() world.State {
	return world.NewStateWith(b.objects, b.facts...)
}
