package pddl

import (
	"fmt"
	"strings"
)

// Operator words.
const (
	OpAnd      = "and"
	OpOr       = "or"
	OpNot      = "not"
	OpImply    = "imply"
	OpWhen     = "when"
	OpForall   = "forall"
	OpExists   = "exists"
	OpAssign   = "assign"
	OpIncrease = "increase"
)

// IsOperator reports whether word is a logical, quantifier or numeric operator.
func IsOperator(word string) bool {
	switch word {
	case OpAnd, OpOr, OpNot, OpImply, OpWhen, OpForall, OpExists, OpAssign, OpIncrease:
		return true
	}
	return false
}

// Expression is a node of a logic expression tree. It is either an Instance
// leaf or a Compound.
type Expression interface {
	fmt.Stringer
	expression()
}

// Compound is an operator or predicate word applied to ordered arguments.
// The zero Compound is the empty expression.
type Compound struct {
	Word string
	Args []Expression
}

func (Compound) expression() {}

// IsEmpty reports whether e is nil or the empty expression.
func IsEmpty(e Expression) bool {
	if e == nil {
		return true
	}
	c, ok := e.(Compound)
	return ok && c.Word == "" && len(c.Args) == 0
}

// Empty returns the empty expression.
func Empty() Expression { return Compound{} }

func (c Compound) String() string {
	if c.Word == "" && len(c.Args) == 0 {
		return "()"
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(c.Word)
	for i, a := range c.Args {
		b.WriteByte(' ')
		if i == 0 && (c.Word == OpForall || c.Word == OpExists) {
			if inst, ok := a.(Instance); ok {
				b.WriteString("(" + inst.Declaration() + ")")
				continue
			}
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// WordOf returns the word of a compound, or "" for leaves.
func WordOf(e Expression) string {
	if c, ok := e.(Compound); ok {
		return c.Word
	}
	return ""
}

// ArgsOf returns the arguments of a compound, or nil for leaves.
func ArgsOf(e Expression) []Expression {
	if c, ok := e.(Compound); ok {
		return c.Args
	}
	return nil
}

// Atom applies a predicate to instances.
func Atom(predicate string, args ...Instance) Expression {
	exprs := make([]Expression, len(args))
	for i, a := range args {
		exprs[i] = a
	}
	return Compound{Word: predicate, Args: exprs}
}

// And builds a conjunction.
func And(args ...Expression) Expression { return Compound{Word: OpAnd, Args: args} }

// Or builds a disjunction.
func Or(args ...Expression) Expression { return Compound{Word: OpOr, Args: args} }

// Not builds a negation.
func Not(arg Expression) Expression { return Compound{Word: OpNot, Args: []Expression{arg}} }

// Imply builds an implication.
func Imply(cond, then Expression) Expression {
	return Compound{Word: OpImply, Args: []Expression{cond, then}}
}

// When builds a conditional effect.
func When(cond, then Expression) Expression {
	return Compound{Word: OpWhen, Args: []Expression{cond, then}}
}

// Forall quantifies body over every object of the parameter type.
func Forall(param Instance, body Expression) Expression {
	return Compound{Word: OpForall, Args: []Expression{param, body}}
}

// Exists quantifies body over some object of the parameter type.
func Exists(param Instance, body Expression) Expression {
	return Compound{Word: OpExists, Args: []Expression{param, body}}
}

// Assign builds a numeric assignment effect.
func Assign(target, value Expression) Expression {
	return Compound{Word: OpAssign, Args: []Expression{target, value}}
}

// Increase builds a numeric increase effect.
func Increase(target, value Expression) Expression {
	return Compound{Word: OpIncrease, Args: []Expression{target, value}}
}

// Combine joins args with word. No argument yields the empty expression and a
// single argument is returned as is.
func Combine(word string, args ...Expression) Expression {
	switch len(args) {
	case 0:
		return Empty()
	case 1:
		return args[0]
	default:
		return Compound{Word: word, Args: args}
	}
}

// Conjuncts returns the top-level arguments of a conjunction, or e itself.
func Conjuncts(e Expression) []Expression {
	if IsEmpty(e) {
		return nil
	}
	if WordOf(e) == OpAnd {
		return ArgsOf(e)
	}
	return []Expression{e}
}
