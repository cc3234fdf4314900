package planning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	agentType = pddl.NewType("social_agent", nil)
	humanType = pddl.NewType("human", agentType)

	self  = agentType.Instance("self")
	alice = humanType.Instance("alice")

	h          = humanType.Variable("h")
	engages    = pddl.NewPredicate("engages", agentType.Variable("a1"), agentType.Variable("a2"))
	wasGreeted = pddl.NewPredicate("was_greeted", h)

	greet = pddl.Action{
		Name:         "greet",
		Parameters:   []pddl.Instance{h},
		Precondition: engages.Expr(self, h),
		Effect:       wasGreeted.Expr(h),
	}

	testDomain = Domain{
		Name:       "test",
		Types:      []*pddl.Type{agentType, humanType},
		Constants:  []pddl.Instance{self},
		Predicates: []pddl.Predicate{engages, wasGreeted},
		Actions:    []pddl.Action{greet},
	}
)

func TestDomain_String(t *testing.T) {
	text := testDomain.String()
	assert.Contains(t, text, "(define (domain test)")
	assert.Contains(t, text, "(:requirements :adl")
	assert.Contains(t, text, "social_agent - object")
	assert.Contains(t, text, "human - social_agent")
	assert.Contains(t, text, "self - social_agent")
	assert.Contains(t, text, "(engages ?a1 - social_agent ?a2 - social_agent)")
	assert.Contains(t, text, "(:action greet")
	assert.Contains(t, text, ":effect (was_greeted ?h)")

	a, ok := testDomain.Action("greet")
	require.True(t, ok)
	assert.Equal(t, "greet", a.Name)
	_, ok = testDomain.Action("dance")
	assert.False(t, ok)

	c, ok := testDomain.Constant("self")
	require.True(t, ok)
	assert.True(t, c.Equal(self))
}

func TestNewProblem(t *testing.T) {
	state := world.NewState(engages.Of(self, alice), wasGreeted.Of(alice).Negation())
	goal := pddl.And(wasGreeted.Expr(alice), engages.Expr(self, alice))

	p := NewProblem("p", testDomain, state, goal)
	assert.Equal(t, []pddl.Instance{alice}, p.Objects, "constants are not problem objects")
	require.Len(t, p.Init, 1, "negated facts stay out of the initial state")
	assert.Equal(t, "(engages self alice)", p.Init[0].String())
	assert.Len(t, p.Goals, 2)

	text := p.String()
	assert.Contains(t, text, "(define (problem p)")
	assert.Contains(t, text, "(:domain test)")
	assert.Contains(t, text, "alice - human")
	assert.NotContains(t, text, "self - social_agent")
	assert.Contains(t, text, "(was_greeted alice)")
}

func TestHelper_SearchPlan(t *testing.T) {
	var gotDomain, gotProblem string
	planner := PlannerFunc(func(_ context.Context, domain, problem string) ([]pddl.Task, error) {
		gotDomain, gotProblem = domain, problem
		return []pddl.Task{pddl.NewTask("greet", alice)}, nil
	})
	helper := NewHelper(planner, testDomain, func(o *Options) {
		o.Goal = wasGreeted.Expr(alice)
	})

	tasks, err := helper.SearchPlan(context.Background(), world.NewState(engages.Of(self, alice)))
	require.NoError(t, err)
	assert.Equal(t, []pddl.Task{pddl.NewTask("greet", alice)}, tasks)
	assert.Equal(t, helper.DomainText(), gotDomain)
	assert.Contains(t, gotProblem, "(:goal")
	assert.Contains(t, gotProblem, "(was_greeted alice)")
}

func TestHelper_EmptyPlan(t *testing.T) {
	planner := PlannerFunc(func(context.Context, string, string) ([]pddl.Task, error) { return nil, nil })
	helper := NewHelper(planner, testDomain, func(o *Options) { o.Goal = wasGreeted.Expr(alice) })

	tasks, err := helper.SearchPlan(context.Background(), world.NewState())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestHelper_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		goal    pddl.Expression
		planner PlannerFunc
		timeout time.Duration
		kind    ErrorKind
	}{
		{
			name: "no goal",
			goal: pddl.Empty(),
			planner: func(context.Context, string, string) ([]pddl.Task, error) {
				return nil, nil
			},
			kind: KindNoGoal,
		},
		{
			name: "planner failure",
			goal: wasGreeted.Expr(alice),
			planner: func(context.Context, string, string) ([]pddl.Task, error) {
				return nil, boom
			},
			kind: KindPlanner,
		},
		{
			name: "malformed output",
			goal: wasGreeted.Expr(alice),
			planner: func(context.Context, string, string) ([]pddl.Task, error) {
				return pddl.ParsePlan("greet alice")
			},
			kind: KindMalformed,
		},
		{
			name: "unknown action",
			goal: wasGreeted.Expr(alice),
			planner: func(context.Context, string, string) ([]pddl.Task, error) {
				return []pddl.Task{{Action: "dance"}}, nil
			},
			kind: KindMalformed,
		},
		{
			name: "wrong arity",
			goal: wasGreeted.Expr(alice),
			planner: func(context.Context, string, string) ([]pddl.Task, error) {
				return []pddl.Task{{Action: "greet"}}, nil
			},
			kind: KindMalformed,
		},
		{
			name:    "timeout",
			goal:    wasGreeted.Expr(alice),
			timeout: 10 * time.Millisecond,
			planner: func(ctx context.Context, _, _ string) ([]pddl.Task, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			kind: KindTimeout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			helper := NewHelper(tc.planner, testDomain, func(o *Options) {
				o.Goal = tc.goal
				o.Timeout = tc.timeout
			})
			tasks, err := helper.SearchPlan(context.Background(), world.NewState())
			require.Error(t, err)
			assert.Nil(t, tasks)
			assert.True(t, IsKind(err, tc.kind), "got %v", err)
		})
	}

	helper := NewHelper(PlannerFunc(func(context.Context, string, string) ([]pddl.Task, error) {
		return nil, boom
	}), testDomain, func(o *Options) { o.Goal = wasGreeted.Expr(alice) })
	_, err := helper.SearchPlan(context.Background(), world.NewState())
	assert.ErrorIs(t, err, boom)
}

func TestHelper_SlowPlanningHook(t *testing.T) {
	var slow time.Duration
	planner := PlannerFunc(func(context.Context, string, string) ([]pddl.Task, error) {
		time.Sleep(20 * time.Millisecond)
		return nil, nil
	})
	helper := NewHelper(planner, testDomain, func(o *Options) {
		o.Goal = wasGreeted.Expr(alice)
		o.SlowPlanning = time.Millisecond
		o.OnSlowPlan = func(d time.Duration) { slow = d }
	})

	_, err := helper.SearchPlan(context.Background(), world.NewState())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, slow, 20*time.Millisecond)
}

func TestHelper_SetGoalWaitsForSearch(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	planner := PlannerFunc(func(context.Context, string, string) ([]pddl.Task, error) {
		close(entered)
		<-release
		return nil, nil
	})
	helper := NewHelper(planner, testDomain, func(o *Options) { o.Goal = wasGreeted.Expr(alice) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = helper.SearchPlan(context.Background(), world.NewState())
	}()
	<-entered

	goalSet := make(chan struct{})
	go func() {
		helper.SetGoal(engages.Expr(self, alice))
		close(goalSet)
	}()

	select {
	case <-goalSet:
		t.Fatal("SetGoal returned while a search was in progress")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-goalSet
	assert.Equal(t, "(engages self alice)", helper.Goal().String())
}
