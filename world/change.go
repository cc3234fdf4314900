package world

import (
	"strings"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/pddl"
)

// Change is an atomic delta over objects and facts. The zero value changes nothing.
type Change struct {
	Objects core.SetDelta[pddl.Instance]
	Facts   core.SetDelta[pddl.Fact]
}

// ChangeFunc computes a change from the state it will be applied to.
type ChangeFunc func(State) Change

// AddingFacts returns a change that only adds facts.
func AddingFacts(facts ...pddl.Fact) Change {
	return Change{Facts: core.Adding(facts...)}
}

// RemovingFacts returns a change that only removes facts.
func RemovingFacts(facts ...pddl.Fact) Change {
	return Change{Facts: core.Removing(facts...)}
}

// AddingObjects returns a change that only adds objects.
func AddingObjects(objects ...pddl.Instance) Change {
	return Change{Objects: core.Adding(objects...)}
}

// RemovingObjects returns a change that only removes objects.
func RemovingObjects(objects ...pddl.Instance) Change {
	return Change{Objects: core.Removing(objects...)}
}

// MergedWith composes c then other. The operation is not commutative.
func (c Change) MergedWith(other Change) Change {
	return Change{
		Objects: c.Objects.Merge(other.Objects),
		Facts:   c.Facts.Merge(other.Facts),
	}
}

// IsEmpty reports whether the change does nothing.
func (c Change) IsEmpty() bool { return c.Objects.IsEmpty() && c.Facts.IsEmpty() }

// Equal compares both deltas.
func (c Change) Equal(o Change) bool {
	return c.Objects.Equal(o.Objects) && c.Facts.Equal(o.Facts)
}

// String renders "+obj -obj +fact -fact".
func (c Change) String() string {
	var parts []string
	for _, o := range c.Objects.Added().Items() {
		parts = append(parts, "+"+o.Declaration())
	}
	for _, o := range c.Objects.Removed().Items() {
		parts = append(parts, "-"+o.Declaration())
	}
	for _, f := range c.Facts.Added().Items() {
		parts = append(parts, "+"+f.String())
	}
	for _, f := range c.Facts.Removed().Items() {
		parts = append(parts, "-"+f.String())
	}
	return strings.Join(parts, " ")
}

// EffectToChange returns the change the action declares for args.
func EffectToChange(action pddl.Action, args []pddl.Instance) (Change, error) {
	delta, err := pddl.EffectToFactDelta(action, args)
	if err != nil {
		return Change{}, err
	}
	return Change{Facts: delta}, nil
}

// EffectExpressionToChange applies bindings to an effect and returns the change it declares.
func EffectExpressionToChange(effect pddl.Expression, bindings pddl.Bindings) (Change, error) {
	delta, err := pddl.ExpressionToFactDelta(pddl.ApplyParameters(effect, bindings))
	if err != nil {
		return Change{}, err
	}
	return Change{Facts: delta}, nil
}
