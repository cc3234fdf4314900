package world

import (
	"fmt"
	"strings"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/pddl"
)

// ContradictionError is returned when a change adds a fact together with its negation.
type ContradictionError struct {
	Facts []pddl.Fact
}

func (e *ContradictionError) Error() string {
	parts := make([]string, len(e.Facts))
	for i, f := range e.Facts {
		parts[i] = f.String()
	}
	return "tried to insert facts negating each other: " + strings.Join(parts, "; ")
}

// State is an immutable snapshot of objects and facts.
type State struct {
	objects core.Set[pddl.Instance]
	facts   core.Set[pddl.Fact]
	version uint64
}

// NewState builds a state whose objects are the arguments of facts.
func NewState(facts ...pddl.Fact) State {
	return NewStateWith(nil, facts...)
}

// NewStateWith builds a state from objects plus the arguments of facts.
func NewStateWith(objects []pddl.Instance, facts ...pddl.Fact) State {
	objs := core.NewSet(objects...)
	for _, f := range facts {
		objs.Add(f.Args...)
	}
	return State{objects: objs, facts: core.NewSet(facts...)}
}

// Objects returns the objects sorted by key.
func (s State) Objects() []pddl.Instance { return s.objects.Items() }

// Facts returns the facts sorted by key.
func (s State) Facts() []pddl.Fact { return s.facts.Items() }

// ObjectSet returns a copy of the object set.
func (s State) ObjectSet() core.Set[pddl.Instance] { return s.objects.Clone() }

// FactSet returns a copy of the fact set.
func (s State) FactSet() core.Set[pddl.Fact] { return s.facts.Clone() }

// HasObject reports whether inst is in the state.
func (s State) HasObject(inst pddl.Instance) bool { return s.objects.Contains(inst) }

// HasFact reports whether f holds in the state.
func (s State) HasFact(f pddl.Fact) bool { return s.facts.Contains(f) }

// Object finds an object by name.
func (s State) Object(name string) (pddl.Instance, bool) {
	for _, o := range s.objects {
		if o.Name == name {
			return o, true
		}
	}
	return pddl.Instance{}, false
}

// ObjectsOfType returns the objects whose type is a subtype of t.
func (s State) ObjectsOfType(t *pddl.Type) []pddl.Instance {
	return s.objects.Filter(func(o pddl.Instance) bool { return o.Type.IsSubtypeOf(t) }).Items()
}

// FactsOf returns the facts of the named predicate.
func (s State) FactsOf(predicate string) []pddl.Fact {
	return s.facts.Filter(func(f pddl.Fact) bool { return f.Predicate == predicate }).Items()
}

// Version is the commit number of a snapshot taken from a MutableWorld.
// Standalone states have version 0.
func (s State) Version() uint64 { return s.version }

// Equal compares objects and facts.
func (s State) Equal(o State) bool {
	return s.objects.Equal(o.objects) && s.facts.Equal(o.facts)
}

// Evaluate computes e against the state.
func (s State) Evaluate(e pddl.Expression) (bool, error) {
	return pddl.Evaluate(e, s.objects, s.facts)
}

// Updated returns the state after change. A change adding a fact together with
// its negation fails with *ContradictionError and nothing is applied.
// Arguments of added facts join the objects, and removing an object removes
// every fact mentioning it.
func (s State) Updated(change Change) (State, error) {
	facts, err := applyDefaultRules(change.Facts)
	if err != nil {
		return s, err
	}
	next := State{objects: s.objects.Clone(), facts: s.facts.Clone()}
	applyChange(next.objects, next.facts, change.Objects, facts)
	return next, nil
}

// Plus adds facts and any object they introduce.
func (s State) Plus(facts ...pddl.Fact) (State, error) {
	return s.Updated(AddingFacts(facts...))
}

// Minus removes facts.
func (s State) Minus(facts ...pddl.Fact) State {
	next, _ := s.Updated(Change{Facts: core.Removing(facts...)})
	return next
}

func (s State) String() string {
	var b strings.Builder
	b.WriteString("objects:\n")
	for _, o := range s.Objects() {
		fmt.Fprintf(&b, "  %s\n", o.Declaration())
	}
	b.WriteString("facts:\n")
	for _, f := range s.Facts() {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	return b.String()
}

// Diff returns the change transforming from into to.
func Diff(from, to State) Change {
	return Change{
		Objects: core.MustSetDelta(to.objects.Difference(from.objects), from.objects.Difference(to.objects)),
		Facts:   core.MustSetDelta(to.facts.Difference(from.facts), from.facts.Difference(to.facts)),
	}
}

// applyDefaultRules makes added facts evict their negation.
func applyDefaultRules(change core.SetDelta[pddl.Fact]) (core.SetDelta[pddl.Fact], error) {
	added := change.Added()
	if len(added) == 0 {
		return change, nil
	}
	negations := core.NewSet[pddl.Fact]()
	for _, f := range added {
		negations.Add(f.Negation())
	}
	if both := added.Intersection(negations); len(both) > 0 {
		return change, &ContradictionError{Facts: both.Items()}
	}
	return core.NewSetDelta(added, change.Removed().Union(negations))
}

// applyChange adds objects, then applies the resolved fact delta, then
// removes objects along with the facts mentioning them. It reports whether
// anything changed.
func applyChange(objects core.Set[pddl.Instance], facts core.Set[pddl.Fact], objs core.SetDelta[pddl.Instance], delta core.SetDelta[pddl.Fact]) bool {
	changed := objects.Add(objs.Added().Items()...)
	for _, f := range delta.Added() {
		if objects.Add(f.Args...) {
			changed = true
		}
	}
	if !delta.IsEmpty() && delta.ApplyTo(facts) {
		changed = true
	}

	removed := objs.Removed()
	if len(removed) == 0 {
		return changed
	}
	if objects.Remove(removed.Items()...) {
		changed = true
	}
	for k, f := range facts {
		if mentionsAny(f, removed) {
			delete(facts, k)
			changed = true
		}
	}
	return changed
}

func mentionsAny(f pddl.Fact, objects core.Set[pddl.Instance]) bool {
	for _, a := range f.Args {
		if objects.Contains(a) {
			return true
		}
	}
	return false
}
