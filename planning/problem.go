package planning

import (
	"fmt"
	"strings"

	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

// DefaultProblemName names problems built by a Helper.
const DefaultProblemName = "current"

// Problem is the dynamic part of a planning problem.
type Problem struct {
	Name   string
	Domain string
	// Objects excludes the domain constants.
	Objects []pddl.Instance
	// Init holds positive facts only; absent facts are false under the
	// closed world assumption.
	Init  []pddl.Fact
	Goals []pddl.Expression
}

// NewProblem describes state against domain with the given goal.
// The goal is split into its top-level conjuncts.
func NewProblem(name string, domain Domain, state world.State, goal pddl.Expression) Problem {
	objects := state.ObjectSet().Difference(domain.ConstantSet())
	var init []pddl.Fact
	for _, f := range state.Facts() {
		if !f.Negated {
			init = append(init, f)
		}
	}
	return Problem{
		Name:    name,
		Domain:  domain.Name,
		Objects: objects.Items(),
		Init:    init,
		Goals:   pddl.Conjuncts(goal),
	}
}

// String renders the problem in PDDL.
func (p Problem) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(define (problem %s)\n", p.Name)
	fmt.Fprintf(&b, "    (:domain %s)\n", p.Domain)

	b.WriteString("    (:objects\n")
	for _, o := range p.Objects {
		fmt.Fprintf(&b, "        %s\n", o.Declaration())
	}
	b.WriteString("    )\n")

	b.WriteString("    (:init\n")
	for _, f := range p.Init {
		fmt.Fprintf(&b, "        %s\n", f)
	}
	b.WriteString("    )\n")

	b.WriteString("    (:goal\n        (and\n")
	for _, g := range p.Goals {
		fmt.Fprintf(&b, "            %s\n", g)
	}
	b.WriteString("        )\n    )\n")
	b.WriteString(")\n")
	return b.String()
}
