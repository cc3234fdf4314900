package pddl

import (
	"fmt"
	"strings"
)

// Fact is a ground predicate application over instances, possibly negated.
type Fact struct {
	Predicate string
	Args      []Instance
	Negated   bool
}

// NewFact builds a positive fact.
func NewFact(predicate string, args ...Instance) Fact {
	return Fact{Predicate: predicate, Args: args}
}

// Key identifies the fact in sets, including argument types.
func (f Fact) Key() string {
	var b strings.Builder
	if f.Negated {
		b.WriteString("(not ")
	}
	b.WriteByte('(')
	b.WriteString(f.Predicate)
	for _, a := range f.Args {
		b.WriteByte(' ')
		b.WriteString(a.Key())
	}
	b.WriteByte(')')
	if f.Negated {
		b.WriteByte(')')
	}
	return b.String()
}

func (f Fact) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(f.Predicate)
	for _, a := range f.Args {
		b.WriteByte(' ')
		b.WriteString(a.Name)
	}
	b.WriteByte(')')
	if f.Negated {
		return "(not " + b.String() + ")"
	}
	return b.String()
}

// Negation returns the fact with opposite polarity.
func (f Fact) Negation() Fact {
	f.Negated = !f.Negated
	return f
}

// Positive returns the fact without negation.
func (f Fact) Positive() Fact {
	f.Negated = false
	return f
}

// Expression converts the fact back into an expression tree.
func (f Fact) Expression() Expression {
	atom := Atom(f.Predicate, f.Args...)
	if f.Negated {
		return Not(atom)
	}
	return atom
}

// Involves reports whether inst is one of the fact arguments.
func (f Fact) Involves(inst Instance) bool {
	for _, a := range f.Args {
		if a.Equal(inst) {
			return true
		}
	}
	return false
}

// Equal compares two facts by key.
func (f Fact) Equal(o Fact) bool { return f.Key() == o.Key() }

// FactFromExpression converts a ground atom, or its negation, into a Fact.
func FactFromExpression(e Expression) (Fact, error) {
	c, ok := e.(Compound)
	if !ok {
		return Fact{}, fmt.Errorf("%w: %s is an instance", ErrNotAFact, e)
	}
	if c.Word == OpNot {
		if len(c.Args) != 1 {
			return Fact{}, fmt.Errorf("%w: %s", ErrNotAFact, e)
		}
		inner, err := FactFromExpression(c.Args[0])
		if err != nil {
			return Fact{}, err
		}
		return inner.Negation(), nil
	}
	if c.Word == "" || IsOperator(c.Word) {
		return Fact{}, fmt.Errorf("%w: %s", ErrNotAFact, e)
	}
	args := make([]Instance, len(c.Args))
	for i, a := range c.Args {
		inst, ok := a.(Instance)
		if !ok {
			return Fact{}, fmt.Errorf("%w: argument %s of %s is not an instance", ErrNotAFact, a, c.Word)
		}
		args[i] = inst
	}
	return Fact{Predicate: c.Word, Args: args}, nil
}

// NegationOf returns the negation of a fact expression, cancelling double negations.
func NegationOf(e Expression) Expression {
	if WordOf(e) == OpNot {
		return ArgsOf(e)[0]
	}
	return Not(e)
}

// Predicate is a predicate schema with typed parameters.
type Predicate struct {
	Name       string
	Parameters []Instance
}

// NewPredicate declares a predicate schema.
func NewPredicate(name string, params ...Instance) Predicate {
	return Predicate{Name: name, Parameters: params}
}

// Of applies the predicate to arguments.
func (p Predicate) Of(args ...Instance) Fact {
	return NewFact(p.Name, args...)
}

// Expr applies the predicate and returns the expression form.
func (p Predicate) Expr(args ...Instance) Expression {
	return Atom(p.Name, args...)
}

// Declaration renders "(name ?a - t1 ?b - t2)".
func (p Predicate) Declaration() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(p.Name)
	for _, param := range p.Parameters {
		b.WriteByte(' ')
		b.WriteString(param.Declaration())
	}
	b.WriteByte(')')
	return b.String()
}
