package domain

import (
	"errors"
	"fmt"

	"github.com/hupe1980/worldloop/pddl"
)

// ErrUnknownGoal is returned by GoalByName for unregistered names.
var ErrUnknownGoal = errors.New("unknown goal")

// NamedGoal is a goal known by a human-readable name.
type NamedGoal struct {
	Name string
	Goal pddl.Expression
}

// EngageableHumansAreGreeted asks to greet every human who can be engaged.
var EngageableHumansAreGreeted = NamedGoal{
	Name: "Engageable humans are greeted",
	Goal: pddl.Forall(h, pddl.Imply(CanBeEngaged.Expr(h), WasGreeted.Expr(h))),
}

// EngageableHumansAreHappy asks every human who can be engaged to feel happy.
var EngageableHumansAreHappy = NamedGoal{
	Name: "Engageable humans are happy",
	Goal: pddl.Forall(h, pddl.Imply(CanBeEngaged.Expr(h), Feels.Expr(h, Happy))),
}

// Goals returns every declared goal.
func Goals() []NamedGoal {
	return []NamedGoal{EngageableHumansAreGreeted, EngageableHumansAreHappy}
}

// GoalByName finds a declared goal.
func GoalByName(name string) (pddl.Expression, error) {
	for _, g := range Goals() {
		if g.Name == name {
			return g.Goal, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGoal, name)
}
