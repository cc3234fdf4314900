package tracker

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var (
	human1 = domain.Human.Instance("human_1")
	human2 = domain.Human.Instance("human_2")
)

type fakeHandle struct {
	id        string
	intention *core.Property[Intention]

	mu  sync.Mutex
	pos Position
}

func newHandle(id string, x, y float64) *fakeHandle {
	return &fakeHandle{id: id, intention: core.NewProperty(IntentionUnknown), pos: Position{X: x, Y: y}}
}

func (h *fakeHandle) ID() string                                    { return h.id }
func (h *fakeHandle) EngagementIntention() core.Readable[Intention] { return h.intention }

func (h *fakeHandle) HeadPosition(context.Context) (Position, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos, nil
}

type fakePerception struct {
	humans  *core.Property[[]Handle]
	touched core.Signal[struct{}]
	heard   core.Signal[struct{}]
}

func newPerception() *fakePerception {
	return &fakePerception{humans: core.NewPropertyFunc[[]Handle](nil, nil)}
}

func (p *fakePerception) Humans() core.Readable[[]Handle]      { return p.humans }
func (p *fakePerception) Touched() core.Observer[struct{}]     { return &p.touched }
func (p *fakePerception) SpeechHeard() core.Observer[struct{}] { return &p.heard }

func (p *fakePerception) see(handles ...*fakeHandle) {
	hs := make([]Handle, len(handles))
	for i, h := range handles {
		hs[i] = h
	}
	p.humans.Set(hs)
}

func testConfig() Config {
	return Config{
		VisibleTimeout:        50 * time.Millisecond,
		TouchTimeout:          200 * time.Millisecond,
		TouchOnceSeenTimeout:  50 * time.Millisecond,
		SpeechTimeout:         200 * time.Millisecond,
		SpeechOnceSeenTimeout: 50 * time.Millisecond,
		InPlanTimeout:         20 * time.Millisecond,
		ZoneRadius:            2,
		ZoneAngle:             math.Pi / 4,
		ZonePollInterval:      10 * time.Millisecond,
	}
}

type env struct {
	tracker    *Tracker
	world      *world.MutableWorld
	data       *world.Data
	perception *fakePerception
}

func newEnv(t *testing.T, optFns ...func(o *Options)) *env {
	t.Helper()
	e := &env{
		world:      world.NewMutableWorld(world.NewStateWith([]pddl.Instance{domain.Self})),
		data:       world.NewData(),
		perception: newPerception(),
	}
	opts := append([]func(o *Options){func(o *Options) {
		o.Config = testConfig()
		o.CheckConsistency = true
	}}, optFns...)
	e.tracker = New(e.world, e.data, e.perception, opts...)
	require.NoError(t, e.tracker.Start(context.Background()))
	t.Cleanup(e.tracker.Stop)
	return e
}

func (e *env) eventuallyFact(t *testing.T, f pddl.Fact, holds bool) {
	t.Helper()
	require.Eventually(t, func() bool { return e.world.Get().HasFact(f) == holds }, waitFor, tick, "fact %s should hold: %v", f, holds)
}

func (e *env) eventuallyObject(t *testing.T, inst pddl.Instance, present bool) {
	t.Helper()
	require.Eventually(t, func() bool { return e.world.Get().HasObject(inst) == present }, waitFor, tick, "object %s should be present: %v", inst, present)
}

func TestTracker_TouchWithNobodyCreatesEngagedHuman(t *testing.T) {
	e := newEnv(t)

	e.perception.touched.Emit(struct{}{})

	for _, f := range engagesFacts(human1) {
		e.eventuallyFact(t, f, true)
	}
	e.eventuallyFact(t, domain.Preferred.Of(human1), true)
	_, ok := e.data.Get(human1, world.HandleKey)
	assert.False(t, ok)

	// Nobody confirms the touch: the human is forgotten after the touch timeout.
	e.eventuallyObject(t, human1, false)
	e.eventuallyFact(t, domain.Preferred.Of(human1), false)
}

func TestTracker_SpeechWithNobodyCreatesEngagedHuman(t *testing.T) {
	e := newEnv(t)

	e.perception.heard.Emit(struct{}{})

	e.eventuallyFact(t, domain.Engages.Of(human1, domain.Self), true)
	e.eventuallyObject(t, human1, false)
}

func TestTracker_BlindInteractionFavoursEngagedHuman(t *testing.T) {
	e := newEnv(t)
	e.perception.see(newHandle("a", 5, 0), newHandle("b", 6, 0))
	e.eventuallyObject(t, human2, true)

	_, err := e.world.EnsureFact(domain.Engages.Of(domain.Self, human2))
	require.NoError(t, err)
	require.NoError(t, e.tracker.Flush(context.Background()))

	e.perception.touched.Emit(struct{}{})

	e.eventuallyFact(t, domain.IsInterested.Of(human2), true)
	assert.False(t, e.world.Get().HasFact(domain.IsInterested.Of(human1)))
	assert.False(t, e.world.Get().HasObject(domain.Human.Instance("human_3")))
}

func TestTracker_VisibleHumanInZone(t *testing.T) {
	e := newEnv(t)

	e.perception.see(newHandle("a", 1, 0))

	e.eventuallyFact(t, domain.KnowsPath.Of(domain.Self, domain.Self, human1), true)
	e.eventuallyFact(t, domain.CanBeEngaged.Of(human1), true)
	e.eventuallyFact(t, domain.Preferred.Of(human1), true)

	handle, ok := world.GetAs[Handle](e.data, human1, world.HandleKey)
	require.True(t, ok)
	assert.Equal(t, "a", handle.ID())
}

func TestTracker_HumanOutOfZoneCannotBeEngaged(t *testing.T) {
	e := newEnv(t)
	h := newHandle("a", 3, 0)

	e.perception.see(h)
	e.eventuallyObject(t, human1, true)

	assert.Never(t, func() bool { return e.world.Get().HasFact(domain.CanBeEngaged.Of(human1)) }, 100*time.Millisecond, tick)

	h.intention.Set(IntentionInterested)
	e.eventuallyFact(t, domain.IsInterested.Of(human1), true)
	assert.False(t, e.world.Get().HasFact(domain.Preferred.Of(human1)))

	// Walking into the zone makes them engageable.
	h.mu.Lock()
	h.pos = Position{X: 1, Y: 0.2}
	h.mu.Unlock()
	e.eventuallyFact(t, domain.CanBeEngaged.Of(human1), true)
	e.eventuallyFact(t, domain.Preferred.Of(human1), true)
}

func TestTracker_ClosestHumanIsPreferred(t *testing.T) {
	e := newEnv(t)

	e.perception.see(newHandle("far", 1.5, 0), newHandle("near", 0.5, 0.1))

	require.Eventually(t, func() bool {
		s := e.world.Get()
		return s.HasFact(domain.Preferred.Of(human2)) && !s.HasFact(domain.Preferred.Of(human1))
	}, waitFor, tick)
}

func TestTracker_EngagedHumanStaysPreferred(t *testing.T) {
	e := newEnv(t)
	e.perception.see(newHandle("far", 1.5, 0), newHandle("near", 0.5, 0.1))
	e.eventuallyFact(t, domain.Preferred.Of(human2), true)

	_, err := e.world.EnsureFact(domain.Engages.Of(domain.Self, human1))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s := e.world.Get()
		return s.HasFact(domain.Preferred.Of(human1)) && !s.HasFact(domain.Preferred.Of(human2))
	}, waitFor, tick)
}

func TestTracker_BlinkingHumanKeepsIdentity(t *testing.T) {
	e := newEnv(t)
	e.perception.see(newHandle("a", 1, 0))
	e.eventuallyFact(t, domain.KnowsPath.Of(domain.Self, domain.Self, human1), true)

	e.perception.see()
	e.perception.see(newHandle("b", 1, 0))
	require.NoError(t, e.tracker.Flush(context.Background()))

	handle, ok := world.GetAs[Handle](e.data, human1, world.HandleKey)
	require.True(t, ok)
	assert.Equal(t, "b", handle.ID())

	// Outlives the visibility timeout.
	time.Sleep(2 * testConfig().VisibleTimeout)
	s := e.world.Get()
	assert.True(t, s.HasObject(human1))
	assert.False(t, s.HasObject(human2))
}

func TestTracker_LostHumanIsForgotten(t *testing.T) {
	e := newEnv(t)
	e.perception.see(newHandle("a", 5, 0))
	e.eventuallyFact(t, domain.KnowsPath.Of(domain.Self, domain.Self, human1), true)

	e.perception.see()

	e.eventuallyFact(t, domain.KnowsPath.Of(domain.Self, domain.Self, human1), false)
	e.eventuallyObject(t, human1, false)
	assert.Empty(t, e.data.Snapshot(human1))

	humans, err := e.tracker.Humans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, humans)
}

func TestTracker_ForgottenHumanLeavesNoFacts(t *testing.T) {
	e := newEnv(t)
	e.perception.see(newHandle("a", 1, 0))
	e.eventuallyFact(t, domain.CanBeEngaged.Of(human1), true)
	_, err := e.world.EnsureFact(domain.WasGreeted.Of(human1))
	require.NoError(t, err)

	e.perception.see()
	e.eventuallyObject(t, human1, false)
	for _, f := range e.world.Get().Facts() {
		assert.False(t, f.Involves(human1), "fact %s outlives its human", f)
	}

	// A later touch creates a new human reusing the name, without the past.
	e.perception.touched.Emit(struct{}{})
	e.eventuallyFact(t, domain.Engages.Of(human1, domain.Self), true)
	assert.False(t, e.world.Get().HasFact(domain.WasGreeted.Of(human1)))
	assert.False(t, e.world.Get().HasFact(domain.KnowsPath.Of(domain.Self, domain.Self, human1)))
}

func TestTracker_HumanKeptByTaskIsNotForgotten(t *testing.T) {
	e := newEnv(t, func(o *Options) {
		o.KeepsHumans = func(action string) bool { return action == "talk" }
	})
	e.perception.see(newHandle("a", 5, 0))
	e.eventuallyObject(t, human1, true)

	e.tracker.SetTasks([]pddl.Task{pddl.NewTask("talk", human1)})
	e.perception.see()

	assert.Never(t, func() bool { return !e.world.Get().HasObject(human1) }, 200*time.Millisecond, tick)

	humans, err := e.tracker.Humans(context.Background())
	require.NoError(t, err)
	require.Len(t, humans, 1)
	assert.True(t, humans[0].KeptByTask)
	assert.True(t, humans[0].InPlan)

	// Once the task is gone, the human can be forgotten.
	e.tracker.SetTasks(nil)
	e.eventuallyObject(t, human1, false)
}

func TestTracker_InitialFacts(t *testing.T) {
	e := newEnv(t, func(o *Options) {
		o.InitialFacts = []pddl.Fact{domain.Feels.Of(HumanParameter, domain.Neutral)}
	})

	e.perception.see(newHandle("a", 1, 0))

	e.eventuallyFact(t, domain.Feels.Of(human1, domain.Neutral), true)
}

func TestTracker_Disengagement(t *testing.T) {
	e := newEnv(t)
	h := newHandle("a", 1, 0)
	e.perception.see(h)
	h.intention.Set(IntentionInterested)
	e.eventuallyFact(t, domain.IsInterested.Of(human1), true)
	e.eventuallyFact(t, domain.Preferred.Of(human1), true)

	_, err := e.world.EnsureFact(domain.IsDisengaging.Of(human1))
	require.NoError(t, err)

	e.eventuallyFact(t, domain.IsInterested.Of(human1), false)
	e.eventuallyFact(t, domain.Preferred.Of(human1), false)
	assert.True(t, e.world.Get().HasObject(human1), "a visible human stays known")

	// Coming back clears the disengagement.
	h.intention.Set(IntentionSeekingEngagement)
	e.eventuallyFact(t, domain.IsDisengaging.Of(human1), false)
	e.eventuallyFact(t, domain.Engages.Of(human1, domain.Self), true)
	e.eventuallyFact(t, domain.Preferred.Of(human1), true)
}

func TestTracker_SetNoHuman(t *testing.T) {
	e := newEnv(t)
	e.perception.see(newHandle("a", 1, 0), newHandle("b", 1, 0.1))
	e.eventuallyObject(t, human2, true)
	_, err := e.world.EnsureFact(domain.WasGreeted.Of(human2))
	require.NoError(t, err)

	e.tracker.SetNoHuman()
	require.NoError(t, e.tracker.Flush(context.Background()))

	s := e.world.Get()
	assert.Empty(t, s.ObjectsOfType(domain.Human))
	assert.Empty(t, s.FactsOf(domain.PreferredName))
	assert.Empty(t, s.FactsOf(domain.KnowsPathName))
	assert.Empty(t, s.FactsOf(domain.WasGreetedName))
}

func TestTracker_Lifecycle(t *testing.T) {
	e := newEnv(t)
	assert.True(t, e.tracker.IsStarted())
	assert.ErrorIs(t, e.tracker.Start(context.Background()), ErrAlreadyStarted)

	e.tracker.Stop()
	assert.False(t, e.tracker.IsStarted())
	assert.ErrorIs(t, e.tracker.Flush(context.Background()), ErrNotStarted)
	_, err := e.tracker.Humans(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, e.tracker.Start(context.Background()))
	require.NoError(t, e.tracker.Flush(context.Background()))
}

func TestInZone(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		d    float64
		in   bool
	}{
		{"ahead", Position{X: 1}, 1, true},
		{"too far", Position{X: 3}, 3, false},
		{"behind", Position{X: -1}, 1, false},
		{"aside", Position{X: 0.1, Y: 1}, math.Hypot(0.1, 1), false},
		{"on the robot", Position{}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, in := InZone(tt.pos, 2, math.Pi/4)
			assert.InDelta(t, tt.d, d, 1e-9)
			assert.Equal(t, tt.in, in)
		})
	}
}

func TestLowestFreeName(t *testing.T) {
	known := []*human{
		newHuman(domain.Human.Instance("human_1"), nil),
		newHuman(domain.Human.Instance("human_3"), nil),
	}
	assert.Equal(t, "human_2", lowestFreeName(known))
	assert.Equal(t, "human_1", lowestFreeName(nil))
}
