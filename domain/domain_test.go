package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/worldloop/controller"
	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = Human.Instance("alice")

func TestDefault_String(t *testing.T) {
	text := Default().String()
	for _, want := range []string{
		"(define (domain interaction)",
		"social_agent - physical_object",
		"human - social_agent",
		"self - social_agent",
		"happy - emotion",
		"(engages ?a1 - social_agent ?a2 - social_agent)",
		"(knows_path ?a1 - social_agent ?from - physical_object ?to - physical_object)",
		"(:action start_engage",
		"(not (exists (?other - human) (engages self ?other)))",
		"(:action joke_with",
	} {
		assert.Contains(t, text, want)
	}
}

func TestGoalByName(t *testing.T) {
	goal, err := GoalByName("Engageable humans are happy")
	require.NoError(t, err)
	assert.Equal(t, "(forall (?h - human) (imply (can_be_engaged ?h) (feels ?h happy)))", goal.String())

	_, err = GoalByName("world peace")
	assert.ErrorIs(t, err, ErrUnknownGoal)
}

func TestGoals_Evaluate(t *testing.T) {
	s := world.NewState(CanBeEngaged.Of(alice))
	ok, err := s.Evaluate(EngageableHumansAreGreeted.Goal)
	require.NoError(t, err)
	assert.False(t, ok)

	s, err = s.Plus(WasGreeted.Of(alice))
	require.NoError(t, err)
	ok, err = s.Evaluate(EngageableHumansAreGreeted.Goal)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeepsHumans(t *testing.T) {
	keeps := KeepsHumans([]ActionDeclaration{Greet, {Schema: pddl.Action{Name: "follow"}, KeepsHumans: true}})
	assert.True(t, keeps("follow"))
	assert.False(t, keeps("greet"))
	assert.False(t, keeps("unknown"))
}

type speaker struct {
	mu    sync.Mutex
	said  []string
	fails error
}

func (s *speaker) Say(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
	return s.fails
}

func run(t *testing.T, d controller.Declaration, args ...pddl.Instance) (world.Change, error) {
	t.Helper()
	started := false
	change, err := d.Action.Run(context.Background(), func() { started = true }, args)
	assert.True(t, started, "action must report being started")
	return change, err
}

func TestFactory_Greet(t *testing.T) {
	sp := &speaker{}
	f := NewFactory(world.NewMutableWorld(world.NewState()), world.NewData(), func(o *FactoryOptions) {
		o.Speaker = sp
		o.Greeting = "Hi there"
	})
	d := f.Declaration(Greet)
	assert.Equal(t, controller.ChatRunning, d.Chat)

	change, err := run(t, d, alice)
	require.NoError(t, err)
	assert.True(t, change.Facts.IsAdded(WasGreeted.Of(alice)))
	assert.Equal(t, []string{"Hi there"}, sp.said)

	sp.fails = errors.New("speaker muted")
	_, err = run(t, d, alice)
	assert.EqualError(t, err, "speaker muted")
}

func TestFactory_Joke(t *testing.T) {
	sp := &speaker{}
	f := NewFactory(world.NewMutableWorld(world.NewState()), world.NewData(), func(o *FactoryOptions) {
		o.Speaker = sp
		o.Jokes = []string{"knock knock"}
	})
	change, err := run(t, f.Declaration(JokeWith), alice)
	require.NoError(t, err)
	assert.True(t, change.Facts.IsAdded(Feels.Of(alice, Happy)))
	assert.True(t, change.Facts.IsRemoved(Feels.Of(alice, Sad)))
	assert.Equal(t, []string{"knock knock"}, sp.said)
}

func TestFactory_FallsBackOnPlaceholder(t *testing.T) {
	f := NewFactory(world.NewMutableWorld(world.NewState()), world.NewData(), func(o *FactoryOptions) {
		o.PlaceholderDuration = time.Millisecond
	})
	change, err := run(t, f.Declaration(Greet), alice)
	require.NoError(t, err)
	assert.True(t, change.Facts.IsAdded(WasGreeted.Of(alice)))
}

func TestPlaceholder_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := Placeholder(Greet.Schema, time.Hour)
	done := make(chan error, 1)
	go func() {
		_, err := a.Run(ctx, func() {}, []pddl.Instance{alice})
		done <- err
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

type handle string

func (h handle) ID() string { return string(h) }

// engager records engagements and lets the test trigger disengagement.
type engager struct {
	mu          sync.Mutex
	engaged     []string
	active      int
	disengaging func()
}

func (e *engager) Engage(ctx context.Context, h Handle, disengaging func()) error {
	e.mu.Lock()
	e.engaged = append(e.engaged, h.ID())
	e.active++
	e.disengaging = disengaging
	e.mu.Unlock()

	<-ctx.Done()

	e.mu.Lock()
	e.active--
	e.mu.Unlock()
	return ctx.Err()
}

func (e *engager) state() ([]string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.engaged...), e.active
}

func TestFactory_EngagementLifecycle(t *testing.T) {
	w := world.NewMutableWorld(world.NewStateWith([]pddl.Instance{alice}))
	data := world.NewData()
	data.Set(alice, world.HandleKey, handle("h-1"))
	eng := &engager{}
	f := NewFactory(w, data, func(o *FactoryOptions) { o.Engager = eng })
	defer f.Close()

	change, err := run(t, f.Declaration(StartEngage), alice)
	require.NoError(t, err)
	assert.True(t, change.Facts.IsAdded(Engages.Of(Self, alice)))

	require.Eventually(t, func() bool {
		_, active := eng.state()
		return active == 1
	}, time.Second, time.Millisecond)

	// Further world updates keep the same engagement.
	_, err = w.EnsureFact(WasGreeted.Of(alice))
	require.NoError(t, err)
	engaged, _ := eng.state()
	assert.Equal(t, []string{"h-1"}, engaged)

	eng.mu.Lock()
	disengaging := eng.disengaging
	eng.mu.Unlock()
	disengaging()
	assert.True(t, w.Get().HasFact(IsDisengaging.Of(alice)))

	_, err = run(t, f.Declaration(StopEngage), alice)
	require.NoError(t, err)
	_, active := eng.state()
	assert.Equal(t, 0, active, "stop_engage ends the engagement")
}

func TestFactory_EngagementEndsWhenHumanLeaves(t *testing.T) {
	w := world.NewMutableWorld(world.NewStateWith([]pddl.Instance{alice}))
	data := world.NewData()
	data.Set(alice, world.HandleKey, handle("h-1"))
	eng := &engager{}
	f := NewFactory(w, data, func(o *FactoryOptions) { o.Engager = eng })
	defer f.Close()

	_, err := run(t, f.Declaration(StartEngage), alice)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, active := eng.state()
		return active == 1
	}, time.Second, time.Millisecond)

	_, err = w.Update(world.RemovingObjects(alice))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, active := eng.state()
		return active == 0
	}, time.Second, time.Millisecond)
}

func TestEngagement_TrackAfterReset(t *testing.T) {
	e := newEngagement(nil)
	gen := e.generation()
	e.reset()

	var disposed bool
	e.track(gen, core.DisposableFunc(func() { disposed = true }))
	assert.True(t, disposed, "a subscription of a reset engagement is dropped")

	disposed = false
	e.track(e.generation(), core.DisposableFunc(func() { disposed = true }))
	assert.False(t, disposed)
	e.reset()
	assert.True(t, disposed)
}
