package pddl

import "github.com/hupe1980/worldloop/core"

// Evaluate computes the truth value of e against a set of objects and facts.
// forall and exists range over the objects whose type is a subtype of the
// quantified parameter type. The empty expression is true.
func Evaluate(e Expression, objects core.Set[Instance], facts core.Set[Fact]) (bool, error) {
	if IsEmpty(e) {
		return true, nil
	}
	c, ok := e.(Compound)
	if !ok {
		return false, &UnsupportedOperatorError{Operation: "evaluate", Operator: "instance " + e.String()}
	}
	if err := checkArity(c); err != nil {
		return false, err
	}
	switch c.Word {
	case OpAnd:
		for _, a := range c.Args {
			v, err := Evaluate(a, objects, facts)
			if err != nil || !v {
				return false, err
			}
		}
		return true, nil
	case OpOr:
		for _, a := range c.Args {
			v, err := Evaluate(a, objects, facts)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		v, err := Evaluate(c.Args[0], objects, facts)
		return !v, err
	case OpImply, OpWhen:
		cond, err := Evaluate(c.Args[0], objects, facts)
		if err != nil || !cond {
			return true, err
		}
		return Evaluate(c.Args[1], objects, facts)
	case OpForall, OpExists:
		return evaluateQuantifier(c, objects, facts)
	case OpAssign, OpIncrease:
		return false, &UnsupportedOperatorError{Operation: "evaluate", Operator: c.Word}
	default:
		f, err := FactFromExpression(c)
		if err != nil {
			return false, err
		}
		if facts.Contains(f) {
			return true, nil
		}
		return false, nil
	}
}

func evaluateQuantifier(c Compound, objects core.Set[Instance], facts core.Set[Fact]) (bool, error) {
	param, ok := c.Args[0].(Instance)
	if !ok {
		return false, &ParseError{Input: c.String(), Reason: "quantifier parameter is not an instance"}
	}
	universal := c.Word == OpForall
	for _, obj := range objects.Items() {
		if obj.Type != nil && !obj.Type.IsSubtypeOf(param.Type) {
			continue
		}
		body := ApplyParameters(c.Args[1], Bindings{param.Key(): obj})
		v, err := Evaluate(body, objects, facts)
		if err != nil {
			return false, err
		}
		if universal && !v {
			return false, nil
		}
		if !universal && v {
			return true, nil
		}
	}
	return universal, nil
}
