package pddl

import (
	"errors"
	"testing"

	"github.com/hupe1980/worldloop/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	agentType = NewType("social_agent", nil)
	humanType = NewType("human", agentType)
	robotType = NewType("robot", agentType)

	self   = agentType.Instance("self")
	alice  = humanType.Instance("alice")
	bob    = humanType.Instance("bob")
	pepper = robotType.Instance("pepper")

	engages = NewPredicate("engages", agentType.Variable("a1"), agentType.Variable("a2"))
	greeted = NewPredicate("was_greeted", humanType.Variable("h"))
)

func TestType_IsSubtypeOf(t *testing.T) {
	assert.True(t, humanType.IsSubtypeOf(agentType))
	assert.True(t, humanType.IsSubtypeOf(humanType))
	assert.False(t, agentType.IsSubtypeOf(humanType))
	assert.False(t, humanType.IsSubtypeOf(robotType))
	assert.True(t, robotType.IsSubtypeOf(nil))
}

func TestInstance_Equality(t *testing.T) {
	assert.True(t, alice.Equal(humanType.Instance("alice")))
	assert.False(t, alice.Equal(agentType.Instance("alice")))
	assert.Equal(t, "alice - human", alice.Declaration())
	assert.True(t, humanType.Variable("h").IsVariable())
}

func TestFact_NegationAndString(t *testing.T) {
	f := engages.Of(self, alice)
	assert.Equal(t, "(engages self alice)", f.String())
	assert.Equal(t, "(not (engages self alice))", f.Negation().String())
	assert.True(t, f.Negation().Negation().Equal(f))
	assert.True(t, f.Involves(alice))
	assert.False(t, f.Involves(bob))

	back, err := FactFromExpression(f.Negation().Expression())
	require.NoError(t, err)
	assert.True(t, back.Equal(f.Negation()))

	_, err = FactFromExpression(And(f.Expression()))
	assert.ErrorIs(t, err, ErrNotAFact)
}

func TestExpression_String(t *testing.T) {
	h := humanType.Variable("h")
	e := Forall(h, Imply(Atom("can_be_engaged", h), greeted.Expr(h)))
	assert.Equal(t, "(forall (?h - human) (imply (can_be_engaged ?h) (was_greeted ?h)))", e.String())
	assert.Equal(t, "()", Empty().String())
}

func TestSimplify(t *testing.T) {
	a := greeted.Expr(alice)
	b := greeted.Expr(bob)

	cases := []struct {
		name string
		in   Expression
		want string
	}{
		{"flatten and", And(a, And(b, a)), "(and (was_greeted alice) (was_greeted bob))"},
		{"single operand", And(Empty(), a), "(was_greeted alice)"},
		{"flatten or", Or(Or(a, b), b), "(or (was_greeted alice) (was_greeted bob))"},
		{"double negation", Not(Not(a)), "(was_greeted alice)"},
		{"empty root", And(), "()"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Simplify(tc.in).String())
		})
	}
}

func TestExtractObjects(t *testing.T) {
	h := humanType.Variable("h")
	e := And(
		engages.Expr(self, alice),
		Not(greeted.Expr(bob)),
		Exists(h, engages.Expr(self, h)),
		Imply(greeted.Expr(pepper), Empty()),
	)
	objs, err := ExtractObjects(e)
	require.NoError(t, err)
	assert.True(t, objs.Equal(core.NewSet(self, alice, bob)))
}

func TestApplyParameters(t *testing.T) {
	h := humanType.Variable("h")
	o := humanType.Variable("other")
	e := And(greeted.Expr(h), Not(Exists(o, engages.Expr(h, o))))
	got := ApplyParameters(e, Bindings{h.Key(): alice})
	assert.Equal(t, "(and (was_greeted alice) (not (exists (?other - human) (engages alice ?other))))", got.String())
}

func TestExpressionToFactDelta(t *testing.T) {
	eff := And(Not(engages.Expr(self, bob)), greeted.Expr(alice), Increase(Atom("total"), Empty()))
	delta, err := ExpressionToFactDelta(eff)
	require.NoError(t, err)
	assert.True(t, delta.Added().Equal(core.NewSet(greeted.Of(alice))))
	assert.True(t, delta.Removed().Equal(core.NewSet(engages.Of(self, bob))))

	_, err = ExpressionToFacts(Or(greeted.Expr(alice), greeted.Expr(bob)))
	var unsupported *UnsupportedOperatorError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, OpOr, unsupported.Operator)

	_, err = ExpressionToFactDelta(And(greeted.Expr(alice), Not(greeted.Expr(alice))))
	var conflict *core.ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestEffectToFactDelta(t *testing.T) {
	h := humanType.Variable("h")
	greet := Action{Name: "greet", Parameters: []Instance{h}, Precondition: engages.Expr(self, h), Effect: greeted.Expr(h)}

	delta, err := EffectToFactDelta(greet, []Instance{alice})
	require.NoError(t, err)
	assert.True(t, delta.Added().Equal(core.NewSet(greeted.Of(alice))))

	_, err = EffectToFactDelta(greet, nil)
	assert.Error(t, err)
	_, err = EffectToFactDelta(greet, []Instance{pepper})
	assert.Error(t, err, "a robot is not a human")
}

func TestEvaluate(t *testing.T) {
	h := humanType.Variable("h")
	objects := core.NewSet(self, alice, bob, pepper)
	facts := core.NewSet(engages.Of(self, alice), greeted.Of(alice), NewFact("can_be_engaged", alice))

	cases := []struct {
		name string
		expr Expression
		want bool
	}{
		{"atom", engages.Expr(self, alice), true},
		{"missing atom", engages.Expr(self, bob), false},
		{"not", Not(greeted.Expr(bob)), true},
		{"or", Or(greeted.Expr(bob), greeted.Expr(alice)), true},
		{"imply vacuous", Imply(greeted.Expr(bob), engages.Expr(self, bob)), true},
		{"exists", Exists(h, engages.Expr(self, h)), true},
		{"forall fails on bob", Forall(h, greeted.Expr(h)), false},
		{"forall over implication", Forall(h, Imply(Atom("can_be_engaged", h), greeted.Expr(h))), true},
		{"empty", Empty(), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.expr, objects, facts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMalformedExpressions(t *testing.T) {
	h := humanType.Variable("h")
	cases := []struct {
		name string
		expr Expression
	}{
		{"bare not", Compound{Word: OpNot}},
		{"not with two operands", Compound{Word: OpNot, Args: []Expression{greeted.Expr(alice), greeted.Expr(bob)}}},
		{"imply without consequence", Compound{Word: OpImply, Args: []Expression{greeted.Expr(alice)}}},
		{"forall without body", Compound{Word: OpForall, Args: []Expression{h}}},
		{"nested", And(greeted.Expr(alice), Compound{Word: OpNot})},
	}
	objects := core.NewSet(alice, bob)
	facts := core.NewSet(greeted.Of(alice))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.expr, objects, facts)
			assert.ErrorIs(t, err, ErrMalformedExpression)
			_, err = ExtractObjects(tc.expr)
			assert.ErrorIs(t, err, ErrMalformedExpression)
			assert.NotPanics(t, func() { Simplify(tc.expr) })
		})
	}
}
