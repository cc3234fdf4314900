package worldloop

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/internal/testutil"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/planner"
	"github.com/hupe1980/worldloop/tracker"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var human1 = domain.Human.Instance("human_1")

func fastTracker() tracker.Config {
	cfg := tracker.DefaultConfig()
	cfg.VisibleTimeout = 50 * time.Millisecond
	cfg.ZonePollInterval = 10 * time.Millisecond
	return cfg
}

func TestLoop_GreetsEngagedHuman(t *testing.T) {
	speaker := &testutil.Speaker{}
	p := planner.NewScripted(
		planner.Returning(pddl.NewTask(domain.Greet.Name(), human1)),
		planner.Returning(),
	)

	l := New(func(o *Options) {
		o.Initial = testutil.NewStateBuilder().Human(human1.Name).Engaged(human1.Name).Build()
		o.Planner = p
		o.Speaker = speaker
	})

	require.NoError(t, l.Start(context.Background()))
	require.Eventually(t, func() bool {
		return l.World().Get().HasFact(domain.WasGreeted.Of(human1))
	}, waitFor, tick)
	l.Stop()

	assert.Equal(t, []string{domain.DefaultGreeting}, speaker.Said())

	r, err := l.SaveReport(context.Background())
	require.NoError(t, err)
	assert.Contains(t, r.Facts, "(was_greeted human_1)")
	assert.Nil(t, r.Humans)

	ids, err := l.Store().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{r.ID}, ids)
}

func TestLoop_StartTwice(t *testing.T) {
	l := New()
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	assert.Error(t, l.Start(context.Background()))
}

func TestLoop_StopWithoutStart(t *testing.T) {
	l := New()
	assert.NotPanics(t, l.Stop)
}

func TestLoop_DefaultInitialStateHoldsConstants(t *testing.T) {
	l := New()
	s := l.World().Get()
	for _, c := range domain.Constants() {
		assert.True(t, s.HasObject(c), c.Name)
	}
}

func TestLoop_EngagesAndGreetsPerceivedHuman(t *testing.T) {
	perception := testutil.NewPerception()
	speaker := &testutil.Speaker{}
	engager := &testutil.Engager{}

	// Plans once the tracked human can be engaged and was not greeted yet.
	p := planner.NewScripted(planner.Step{Func: func(problem string) ([]pddl.Task, error) {
		if !strings.Contains(problem, "(can_be_engaged human_1)") || strings.Contains(problem, "(was_greeted human_1)") {
			return []pddl.Task{}, nil
		}
		return []pddl.Task{
			pddl.NewTask(domain.StartEngage.Name(), human1),
			pddl.NewTask(domain.Greet.Name(), human1),
		}, nil
	}})

	l := New(func(o *Options) {
		o.Planner = p
		o.Perception = perception
		o.Tracker = fastTracker()
		o.Speaker = speaker
		o.Engager = engager
	})
	require.NotNil(t, l.Tracker())

	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	perception.See(testutil.NewHandle("person-a", 1, 0))

	require.Eventually(t, func() bool {
		return l.World().Get().HasFact(domain.WasGreeted.Of(human1))
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		return len(engager.Engaged()) == 1
	}, waitFor, tick)
	assert.Equal(t, []string{"person-a"}, engager.Engaged())

	r, err := l.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, r.Humans, 1)
	assert.Equal(t, "human_1", r.Humans[0].Name)
	assert.Equal(t, "person-a", r.Humans[0].Handle)
}

func TestLoop_TrackerWithoutPerception(t *testing.T) {
	l := New()
	assert.Nil(t, l.Tracker())

	r, err := l.Report(context.Background())
	require.NoError(t, err)
	assert.Contains(t, r.Objects, "self - social_agent")
}

func TestLoop_TouchDeclaresEngagedHuman(t *testing.T) {
	perception := testutil.NewPerception()
	l := New(func(o *Options) {
		o.Perception = perception
		o.Tracker = fastTracker()
	})
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	perception.Touch()
	require.Eventually(t, func() bool {
		s := l.World().Get()
		return s.HasFact(domain.Engages.Of(human1, domain.Self)) &&
			s.HasFact(domain.IsInterested.Of(human1)) &&
			s.HasFact(domain.CanBeEngaged.Of(human1))
	}, waitFor, tick)

	perception.Hear()
	require.NoError(t, l.Tracker().Flush(context.Background()))

	humans, err := l.Tracker().Humans(context.Background())
	require.NoError(t, err)
	assert.Len(t, humans, 1, "speech is attributed to the engaged human")
}

func TestLoop_PerceivedHumanLeavesZone(t *testing.T) {
	perception := testutil.NewPerception()
	l := New(func(o *Options) {
		o.Perception = perception
		o.Tracker = fastTracker()
	})
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	h := testutil.NewHandle("person-a", 1, 0)
	h.SetIntention(tracker.IntentionInterested)
	perception.See(h)

	require.Eventually(t, func() bool {
		s := l.World().Get()
		return s.HasFact(domain.IsInterested.Of(human1)) && s.HasFact(domain.CanBeEngaged.Of(human1))
	}, waitFor, tick)

	h.MoveTo(5, 0)
	require.Eventually(t, func() bool {
		return !l.World().Get().HasFact(domain.CanBeEngaged.Of(human1))
	}, waitFor, tick)
	assert.True(t, l.World().Get().HasObject(human1))
}
