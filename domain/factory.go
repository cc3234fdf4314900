package domain

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hupe1980/worldloop/controller"
	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/logging"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

// DefaultPlaceholderDuration is how long a placeholder action pretends to act.
const DefaultPlaceholderDuration = 2 * time.Second

// DefaultGreeting is said by the greet action.
const DefaultGreeting = "Hello!"

// Handle identifies a perceived entity attached to a world instance under
// world.HandleKey.
type Handle interface {
	ID() string
}

// Speaker says text aloud. Say returns once the utterance is over.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Engager keeps the robot physically engaged with a perceived human.
// Engage blocks until ctx is cancelled or the engagement ends, and calls
// disengaging whenever the human shows signs of leaving.
type Engager interface {
	Engage(ctx context.Context, handle Handle, disengaging func()) error
}

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	Speaker             Speaker
	Engager             Engager
	Greeting            string
	Jokes               []string
	PlaceholderDuration time.Duration
	Logger              logging.Logger
}

// Factory turns action declarations into executable controller
// declarations. It owns the engagement shared by start_engage and
// stop_engage, so each controller needs its own Factory.
type Factory struct {
	world  *world.MutableWorld
	data   *world.Data
	opts   FactoryOptions
	logger logging.Logger
	engage *engagement
}

// NewFactory creates a factory acting on w, reading perception handles from data.
func NewFactory(w *world.MutableWorld, data *world.Data, optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{
		Greeting:            DefaultGreeting,
		Jokes:               []string{"Why did the robot go on holiday? It needed to recharge."},
		PlaceholderDuration: DefaultPlaceholderDuration,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := core.EnsureLogger(opts.Logger)
	return &Factory{
		world:  w,
		data:   data,
		opts:   opts,
		logger: logger,
		engage: newEngagement(logger),
	}
}

// Declarations builds the executable declarations of decls.
func (f *Factory) Declarations(decls ...ActionDeclaration) []controller.Declaration {
	out := make([]controller.Declaration, len(decls))
	for i, d := range decls {
		out[i] = f.Declaration(d)
	}
	return out
}

// Declaration builds the executable declaration of d. Actions whose
// collaborators are missing fall back to a placeholder.
func (f *Factory) Declaration(d ActionDeclaration) controller.Declaration {
	return controller.Declaration{
		Schema:      d.Schema,
		Action:      controller.Exclusive(d.Name(), f.action(d)),
		Chat:        d.Chat,
		KeepsHumans: d.KeepsHumans,
	}
}

func (f *Factory) action(d ActionDeclaration) controller.Action {
	switch d.Kind {
	case KindDeterministic:
		return controller.Deterministic(d.Schema)
	case KindGreet:
		if f.opts.Speaker != nil {
			return f.say(d.Schema, func() string { return f.opts.Greeting })
		}
	case KindJoke:
		if f.opts.Speaker != nil && len(f.opts.Jokes) > 0 {
			return f.say(d.Schema, func() string { return f.opts.Jokes[rand.IntN(len(f.opts.Jokes))] })
		}
	case KindStartEngage:
		if f.opts.Engager != nil {
			return f.startEngage(d.Schema)
		}
	case KindStopEngage:
		return f.stopEngage(d.Schema)
	}
	if d.Kind != KindPlaceholder {
		f.logger.Warn("no executor for action, falling back on a placeholder action=%s kind=%s", d.Name(), d.Kind)
	}
	return Placeholder(d.Schema, f.opts.PlaceholderDuration)
}

// Close ends any running engagement and waits for it.
func (f *Factory) Close() {
	f.engage.reset()
	f.engage.wg.Wait()
}

// Placeholder returns an action that acts for d, or until cancelled, and
// reports the declared effect.
func Placeholder(schema pddl.Action, d time.Duration) controller.Action {
	return controller.ActionFunc(func(ctx context.Context, started func(), args []pddl.Instance) (world.Change, error) {
		started()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return world.Change{}, ctx.Err()
		}
		return world.EffectToChange(schema, args)
	})
}

func (f *Factory) say(schema pddl.Action, text func() string) controller.Action {
	return controller.ActionFunc(func(ctx context.Context, started func(), args []pddl.Instance) (world.Change, error) {
		started()
		if err := f.opts.Speaker.Say(ctx, text()); err != nil {
			return world.Change{}, err
		}
		return world.EffectToChange(schema, args)
	})
}

// startEngage reports its effect at once and keeps the human engaged in the
// background until stop_engage runs or the human leaves the world.
func (f *Factory) startEngage(schema pddl.Action) controller.Action {
	return controller.ActionFunc(func(_ context.Context, started func(), args []pddl.Instance) (world.Change, error) {
		human := args[0]
		gen := f.engage.generation()
		f.engage.track(gen, f.world.SubscribeAndGet(func(s world.State) {
			core.LogTimeExceeding(f.logger, core.WorldCallbackTimeLimit, "engagement world callback", func() {
				f.onWorld(gen, human, s)
			})
		}))
		started()
		return world.EffectToChange(schema, args)
	})
}

func (f *Factory) onWorld(gen uint64, human pddl.Instance, s world.State) {
	if !s.HasObject(human) {
		f.engage.resetAsync()
		return
	}
	handle, ok := world.GetAs[Handle](f.data, human, world.HandleKey)
	if !ok {
		return
	}
	f.engage.start(gen, handle, func(ctx context.Context) error {
		return f.opts.Engager.Engage(ctx, handle, func() {
			if _, err := f.world.EnsureFact(IsDisengaging.Of(human)); err != nil {
				f.logger.Warn("cannot mark human as disengaging human=%s error=%v", human, err)
			}
		})
	})
}

func (f *Factory) stopEngage(schema pddl.Action) controller.Action {
	return controller.ActionFunc(func(_ context.Context, started func(), args []pddl.Instance) (world.Change, error) {
		started()
		f.engage.reset()
		return world.EffectToChange(schema, args)
	})
}

// engagement is the state shared by start_engage and stop_engage.
type engagement struct {
	logger logging.Logger

	mu      sync.Mutex
	gen     uint64
	subs    *core.Disposables
	engaged string
	wg      sync.WaitGroup
}

func newEngagement(logger logging.Logger) *engagement {
	return &engagement{logger: logger, subs: &core.Disposables{}}
}

// generation changes on every reset. Callbacks of a reset engagement carry
// an outdated generation and are ignored.
func (e *engagement) generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// track keeps d until the engagement of gen is reset. When that already
// happened, d is disposed at once.
func (e *engagement) track(gen uint64, d core.Disposable) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		d.Dispose()
		return
	}
	e.subs.Add(d)
	e.mu.Unlock()
}

// start runs engage for handle unless that handle is already engaged.
func (e *engagement) start(gen uint64, handle Handle, engage func(ctx context.Context) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.engaged == handle.ID() {
		return
	}
	e.engaged = handle.ID()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(done)
		err := engage(ctx)
		switch {
		case ctx.Err() != nil:
			e.logger.Debug("physical engagement was cancelled handle=%s", handle.ID())
		case err != nil:
			e.logger.Debug("physical engagement finished with an error handle=%s error=%v", handle.ID(), err)
		}
		e.mu.Lock()
		if e.engaged == handle.ID() {
			e.engaged = ""
		}
		e.mu.Unlock()
	}()
	e.subs.Add(core.DisposableFunc(func() {
		cancel()
		<-done
	}))
}

// reset disposes the world subscription and the running engagement.
func (e *engagement) reset() {
	e.mu.Lock()
	e.gen++
	subs := e.subs
	e.subs = &core.Disposables{}
	e.mu.Unlock()
	subs.Dispose()
}

// resetAsync resets from a world callback, which must not wait.
func (e *engagement) resetAsync() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.reset()
	}()
}
