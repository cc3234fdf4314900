package planning

import (
	"fmt"
	"strings"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/pddl"
)

// DefaultRequirements are declared by domains that do not list their own.
var DefaultRequirements = []string{
	":adl",
	":negative-preconditions",
	":universal-preconditions",
	":existential-preconditions",
}

// Domain is the static part of a planning problem.
type Domain struct {
	Name         string
	Requirements []string
	Types        []*pddl.Type
	Constants    []pddl.Instance
	Predicates   []pddl.Predicate
	Actions      []pddl.Action
}

// Action returns the named action schema.
func (d Domain) Action(name string) (pddl.Action, bool) {
	for _, a := range d.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return pddl.Action{}, false
}

// Constant returns the named constant.
func (d Domain) Constant(name string) (pddl.Instance, bool) {
	for _, c := range d.Constants {
		if c.Name == name {
			return c, true
		}
	}
	return pddl.Instance{}, false
}

// ConstantSet returns the constants as a set.
func (d Domain) ConstantSet() core.Set[pddl.Instance] {
	return core.NewSet(d.Constants...)
}

// TypeIndex indexes the domain types by name.
func (d Domain) TypeIndex() pddl.TypeIndex {
	return pddl.NewTypeIndex(d.Types...)
}

// String renders the domain in PDDL.
func (d Domain) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(define (domain %s)\n", d.Name)

	reqs := d.Requirements
	if len(reqs) == 0 {
		reqs = DefaultRequirements
	}
	fmt.Fprintf(&b, "    (:requirements %s)\n", strings.Join(reqs, " "))

	if len(d.Types) > 0 {
		b.WriteString("    (:types\n")
		for _, t := range d.Types {
			fmt.Fprintf(&b, "        %s - %s\n", t.Name, t.ParentName())
		}
		b.WriteString("    )\n")
	}

	if len(d.Constants) > 0 {
		b.WriteString("    (:constants\n")
		for _, c := range d.Constants {
			fmt.Fprintf(&b, "        %s\n", c.Declaration())
		}
		b.WriteString("    )\n")
	}

	if len(d.Predicates) > 0 {
		b.WriteString("    (:predicates\n")
		for _, p := range d.Predicates {
			fmt.Fprintf(&b, "        %s\n", p.Declaration())
		}
		b.WriteString("    )\n")
	}

	for _, a := range d.Actions {
		for _, line := range strings.Split(a.Declaration(), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	b.WriteString(")\n")
	return b.String()
}
