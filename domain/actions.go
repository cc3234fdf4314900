package domain

import (
	"github.com/hupe1980/worldloop/controller"
	"github.com/hupe1980/worldloop/pddl"
)

// Kind selects how an action declaration is executed.
type Kind int

const (
	// KindPlaceholder pretends to act for a while and reports the declared effect.
	KindPlaceholder Kind = iota
	// KindDeterministic reports the declared effect at once.
	KindDeterministic
	// KindGreet greets through the Speaker.
	KindGreet
	// KindStartEngage starts a physical engagement that outlives the task.
	KindStartEngage
	// KindStopEngage ends the engagement started by KindStartEngage.
	KindStopEngage
	// KindJoke tells a joke through the Speaker.
	KindJoke
)

func (k Kind) String() string {
	switch k {
	case KindDeterministic:
		return "deterministic"
	case KindGreet:
		return "greet"
	case KindStartEngage:
		return "start_engage"
	case KindStopEngage:
		return "stop_engage"
	case KindJoke:
		return "joke"
	default:
		return "placeholder"
	}
}

// ActionDeclaration describes an action of the domain independently of the
// collaborators that execute it.
type ActionDeclaration struct {
	Schema      pddl.Action
	Kind        Kind
	Chat        controller.ChatState
	KeepsHumans bool
}

// Name returns the schema name.
func (d ActionDeclaration) Name() string { return d.Schema.Name }

// WithKind returns a copy executed as kind.
func (d ActionDeclaration) WithKind(kind Kind) ActionDeclaration {
	d.Kind = kind
	return d
}

// WithName renames the declaration and its schema.
func (d ActionDeclaration) WithName(name string) ActionDeclaration {
	d.Schema.Name = name
	return d
}

var other = Human.Variable("other")

// Greet greets an engaged human.
var Greet = ActionDeclaration{
	Schema: pddl.Action{
		Name:         "greet",
		Parameters:   []pddl.Instance{h},
		Precondition: pddl.And(Engages.Expr(Self, h)),
		Effect:       WasGreeted.Expr(h),
	},
	Kind: KindGreet,
	Chat: controller.ChatRunning,
}

// StartEngage starts engaging a human who can be engaged, as long as nobody
// else is engaged.
var StartEngage = ActionDeclaration{
	Schema: pddl.Action{
		Name:       "start_engage",
		Parameters: []pddl.Instance{h},
		Precondition: pddl.And(
			CanBeEngaged.Expr(h),
			pddl.Not(pddl.Exists(other, Engages.Expr(Self, other))),
		),
		Effect: Engages.Expr(Self, h),
	},
	Kind: KindStartEngage,
}

// StopEngage ends the engagement of a human.
var StopEngage = ActionDeclaration{
	Schema: pddl.Action{
		Name:         "stop_engage",
		Parameters:   []pddl.Instance{h},
		Precondition: Engages.Expr(Self, h),
		Effect:       pddl.Not(Engages.Expr(Self, h)),
	},
	Kind: KindStopEngage,
}

// JokeWith makes an engaged human happy. The chat is stopped while the joke
// is told.
var JokeWith = ActionDeclaration{
	Schema: pddl.Action{
		Name:         "joke_with",
		Parameters:   []pddl.Instance{h},
		Precondition: Engages.Expr(Self, h),
		Effect: pddl.And(
			pddl.Not(Feels.Expr(h, Neutral)),
			pddl.Not(Feels.Expr(h, Sad)),
			Feels.Expr(h, Happy),
		),
	},
	Kind: KindJoke,
	Chat: controller.ChatStopped,
}

// Actions returns every declared action.
func Actions() []ActionDeclaration {
	return []ActionDeclaration{Greet, StartEngage, StopEngage, JokeWith}
}

// KeepsHumans returns a lookup telling whether the named action keeps the
// humans it involves in memory.
func KeepsHumans(decls []ActionDeclaration) func(action string) bool {
	keeps := make(map[string]bool, len(decls))
	for _, d := range decls {
		keeps[d.Name()] = d.KeepsHumans
	}
	return func(action string) bool { return keeps[action] }
}
