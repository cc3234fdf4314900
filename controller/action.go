package controller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

// ErrAlreadyRunning is returned when an action instance is run concurrently.
var ErrAlreadyRunning = errors.New("action is already running")

// Action is the executable side of a planned task. Run must call started
// once the action is under way, return promptly when ctx is cancelled and
// report the world change it produced.
type Action interface {
	Run(ctx context.Context, started func(), args []pddl.Instance) (world.Change, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, started func(), args []pddl.Instance) (world.Change, error)

// Run calls f.
func (f ActionFunc) Run(ctx context.Context, started func(), args []pddl.Instance) (world.Change, error) {
	return f(ctx, started, args)
}

// Exclusive wraps a so that overlapping runs fail with ErrAlreadyRunning.
func Exclusive(name string, a Action) Action {
	var running atomic.Bool
	return ActionFunc(func(ctx context.Context, started func(), args []pddl.Instance) (world.Change, error) {
		if !running.CompareAndSwap(false, true) {
			return world.Change{}, fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
		}
		defer running.Store(false)
		return a.Run(ctx, started, args)
	})
}

// Deterministic returns an action that only produces the effect schema declares.
func Deterministic(schema pddl.Action) Action {
	return ActionFunc(func(_ context.Context, started func(), args []pddl.Instance) (world.Change, error) {
		started()
		return world.EffectToChange(schema, args)
	})
}

// ChatState is what an action requires from the ambient conversation.
type ChatState int

const (
	// ChatIndifferent leaves the conversation as it is.
	ChatIndifferent ChatState = iota
	// ChatRunning requires the conversation to run during the action.
	ChatRunning
	// ChatStopped requires the conversation to be stopped.
	ChatStopped
)

func (s ChatState) String() string {
	switch s {
	case ChatRunning:
		return "running"
	case ChatStopped:
		return "stopped"
	default:
		return "indifferent"
	}
}

// Chat is the ambient conversation. Run blocks until ctx is cancelled or
// the conversation ends.
type Chat interface {
	Run(ctx context.Context) error
}

// Declaration binds an action schema to its executable action and run
// requirements.
type Declaration struct {
	Schema pddl.Action
	Action Action
	Chat   ChatState
	// KeepsHumans protects the humans named by the task from being forgotten
	// while the task is planned.
	KeepsHumans bool
}

// Name returns the schema name.
func (d Declaration) Name() string { return d.Schema.Name }
