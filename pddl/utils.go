package pddl

import (
	"fmt"

	"github.com/hupe1980/worldloop/core"
)

// Bindings maps parameter keys to the instances replacing them.
type Bindings map[string]Instance

// ExtractObjects returns every instance an expression refers to.
// Quantified parameters are excluded; implications and conditional effects
// contribute the objects of their consequent only.
func ExtractObjects(e Expression) (core.Set[Instance], error) {
	out := core.NewSet[Instance]()
	if err := extractObjects(e, out); err != nil {
		return nil, err
	}
	return out, nil
}

func extractObjects(e Expression, out core.Set[Instance]) error {
	if IsEmpty(e) {
		return nil
	}
	c, ok := e.(Compound)
	if !ok {
		out.Add(e.(Instance))
		return nil
	}
	if err := checkArity(c); err != nil {
		return err
	}
	switch c.Word {
	case OpNot:
		return extractObjects(c.Args[0], out)
	case OpAnd, OpOr:
		for _, a := range c.Args {
			if err := extractObjects(a, out); err != nil {
				return err
			}
		}
		return nil
	case OpImply, OpWhen:
		return extractObjects(c.Args[1], out)
	case OpForall, OpExists:
		inner := core.NewSet[Instance]()
		if err := extractObjects(c.Args[1], inner); err != nil {
			return err
		}
		if param, ok := c.Args[0].(Instance); ok {
			inner.Remove(param)
		}
		out.Add(inner.Items()...)
		return nil
	case OpAssign, OpIncrease:
		return nil
	default:
		for _, a := range c.Args {
			inst, ok := a.(Instance)
			if !ok {
				return fmt.Errorf("expression %s is not an instance", a)
			}
			out.Add(inst)
		}
		return nil
	}
}

// ApplyParameters substitutes bound parameters throughout e.
// Quantified parameters themselves are left untouched.
func ApplyParameters(e Expression, params Bindings) Expression {
	switch v := e.(type) {
	case Instance:
		if repl, ok := params[v.Key()]; ok {
			return repl
		}
		return v
	case Compound:
		args := make([]Expression, len(v.Args))
		for i, a := range v.Args {
			if i == 0 && (v.Word == OpForall || v.Word == OpExists) {
				args[i] = a
				continue
			}
			args[i] = ApplyParameters(a, params)
		}
		return Compound{Word: v.Word, Args: args}
	default:
		return e
	}
}

// Simplify flattens nested conjunctions and disjunctions, drops empty and
// duplicate operands and cancels double negations. An empty root stays empty.
func Simplify(e Expression) Expression {
	c, ok := e.(Compound)
	if !ok {
		return e
	}
	switch c.Word {
	case OpAnd, OpOr:
		seen := map[string]bool{}
		var flat []Expression
		add := func(x Expression) {
			if k := x.String(); !seen[k] {
				seen[k] = true
				flat = append(flat, x)
			}
		}
		for _, a := range c.Args {
			s := Simplify(a)
			switch {
			case IsEmpty(s):
			case WordOf(s) == c.Word:
				for _, inner := range ArgsOf(s) {
					add(inner)
				}
			default:
				add(s)
			}
		}
		return Combine(c.Word, flat...)
	case OpNot:
		if len(c.Args) != 1 {
			return e
		}
		if inner := ArgsOf(c.Args[0]); WordOf(c.Args[0]) == OpNot && len(inner) == 1 {
			return Simplify(inner[0])
		}
		return Compound{Word: OpNot, Args: []Expression{Simplify(c.Args[0])}}
	default:
		return e
	}
}

// ExpressionToFacts converts a conjunction of literals, such as an action
// effect, into facts. Disjunctions, implications, conditional effects and
// quantifiers are rejected; numeric effects are ignored.
func ExpressionToFacts(e Expression) (core.Set[Fact], error) {
	out := core.NewSet[Fact]()
	if IsEmpty(e) {
		return out, nil
	}
	switch WordOf(e) {
	case OpAnd:
		for _, a := range ArgsOf(e) {
			facts, err := ExpressionToFacts(a)
			if err != nil {
				return nil, err
			}
			out.Add(facts.Items()...)
		}
		return out, nil
	case OpNot:
		facts, err := ExpressionToFacts(ArgsOf(e)[0])
		if err != nil {
			return nil, err
		}
		for _, f := range facts.Items() {
			out.Add(f.Negation())
		}
		return out, nil
	case OpForall, OpExists, OpImply, OpWhen, OpOr:
		return nil, &UnsupportedOperatorError{Operation: "expression to facts", Operator: WordOf(e)}
	case OpIncrease, OpAssign:
		return out, nil
	default:
		f, err := FactFromExpression(e)
		if err != nil {
			return nil, err
		}
		out.Add(f)
		return out, nil
	}
}

// SplitFactsByPolarity returns positive facts as added and the positive form
// of negated facts as removed.
func SplitFactsByPolarity(facts core.Set[Fact]) (core.SetDelta[Fact], error) {
	added, removed := core.NewSet[Fact](), core.NewSet[Fact]()
	for _, f := range facts {
		if f.Negated {
			removed.Add(f.Positive())
		} else {
			added.Add(f)
		}
	}
	return core.NewSetDelta(added, removed)
}

// ExpressionToFactDelta converts an effect-like expression into a fact delta.
func ExpressionToFactDelta(e Expression) (core.SetDelta[Fact], error) {
	facts, err := ExpressionToFacts(e)
	if err != nil {
		return core.SetDelta[Fact]{}, err
	}
	return SplitFactsByPolarity(facts)
}

// AppliedEffect returns the action effect with args substituted for its parameters.
func AppliedEffect(a Action, args []Instance) (Expression, error) {
	b, err := a.Bind(args)
	if err != nil {
		return nil, err
	}
	return ApplyParameters(a.Effect, b), nil
}

// EffectToFactDelta returns the fact delta the action declares for args.
func EffectToFactDelta(a Action, args []Instance) (core.SetDelta[Fact], error) {
	eff, err := AppliedEffect(a, args)
	if err != nil {
		return core.SetDelta[Fact]{}, err
	}
	return ExpressionToFactDelta(eff)
}
