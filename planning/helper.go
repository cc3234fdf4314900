package planning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/logging"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

// DefaultSlowPlanning is the duration past which a search is reported as slow.
const DefaultSlowPlanning = 2 * time.Second

// Options configures a Helper.
type Options struct {
	// Goal is the initial goal. It can be replaced with SetGoal.
	Goal pddl.Expression
	// ProblemName is written in the generated problems.
	ProblemName string
	// SlowPlanning is the threshold past which a search logs a warning.
	SlowPlanning time.Duration
	// OnSlowPlan is called after a slow search, with its duration.
	OnSlowPlan func(d time.Duration)
	// Timeout bounds each search. Zero leaves ctx as the only bound.
	Timeout time.Duration
	// Logger receives planning diagnostics.
	Logger logging.Logger
}

// Helper holds the domain and the current goal and runs searches against
// world snapshots. SetGoal and SearchPlan are serialised, so at most one
// planner call is in flight per Helper.
type Helper struct {
	planner      Planner
	domain       Domain
	domainText   string
	problemName  string
	slowPlanning time.Duration
	onSlowPlan   func(d time.Duration)
	timeout      time.Duration
	logger       logging.Logger

	mu   sync.Mutex
	goal pddl.Expression
}

// NewHelper creates a Helper searching with planner over domain.
func NewHelper(planner Planner, domain Domain, optFns ...func(o *Options)) *Helper {
	opts := Options{
		Goal:         pddl.Empty(),
		ProblemName:  DefaultProblemName,
		SlowPlanning: DefaultSlowPlanning,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Goal == nil {
		opts.Goal = pddl.Empty()
	}

	return &Helper{
		planner:      planner,
		domain:       domain,
		domainText:   domain.String(),
		problemName:  opts.ProblemName,
		slowPlanning: opts.SlowPlanning,
		onSlowPlan:   opts.OnSlowPlan,
		timeout:      opts.Timeout,
		logger:       core.EnsureLogger(opts.Logger),
		goal:         opts.Goal,
	}
}

// Domain returns the planning domain.
func (h *Helper) Domain() Domain { return h.domain }

// DomainText returns the rendered domain.
func (h *Helper) DomainText() string { return h.domainText }

// SetGoal replaces the goal. It waits for a search in progress.
func (h *Helper) SetGoal(goal pddl.Expression) {
	if goal == nil {
		goal = pddl.Empty()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.goal = goal
	h.logger.Info("goal set goal=%s", goal)
}

// Goal returns the current goal.
func (h *Helper) Goal() pddl.Expression {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.goal
}

// Problem builds the problem the next search would submit for state.
func (h *Helper) Problem(state world.State) Problem {
	return NewProblem(h.problemName, h.domain, state, h.Goal())
}

// SearchPlan submits state and the current goal to the planner. An empty
// plan means the goal is satisfied. Failures are returned as *Error and
// never retried.
func (h *Helper) SearchPlan(ctx context.Context, state world.State) ([]pddl.Task, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if pddl.IsEmpty(h.goal) {
		return nil, &Error{Kind: KindNoGoal, Err: ErrNoGoal}
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	pass := uuid.NewString()
	problem := NewProblem(h.problemName, h.domain, state, h.goal)
	h.logger.Debug("searching plan pass=%s objects=%d facts=%d goals=%d", pass, len(problem.Objects), len(problem.Init), len(problem.Goals))

	start := time.Now()
	tasks, err := h.planner.Plan(ctx, h.domainText, problem.String())
	elapsed := time.Since(start)

	if elapsed > h.slowPlanning {
		h.logger.Warn("planning took especially long pass=%s duration=%s limit=%s", pass, elapsed, h.slowPlanning)
		if h.onSlowPlan != nil {
			h.onSlowPlan(elapsed)
		}
	}

	if err != nil {
		return nil, h.fail(pass, classify(ctx, err), elapsed, err)
	}
	if err := h.validate(tasks); err != nil {
		return nil, h.fail(pass, KindMalformed, elapsed, err)
	}

	if len(tasks) == 0 {
		h.logger.Info("planning found an empty plan, goal is satisfied pass=%s duration=%s", pass, elapsed)
		return []pddl.Task{}, nil
	}

	h.logger.Info("planning found plan pass=%s duration=%s tasks=%d plan=%s", pass, elapsed, len(tasks), pddl.FormatPlan(tasks))
	return tasks, nil
}

func (h *Helper) fail(pass string, kind ErrorKind, elapsed time.Duration, err error) error {
	h.logger.Error("planning failed pass=%s kind=%s error=%v", pass, kind, err)
	return &Error{Kind: kind, Duration: elapsed, Err: err}
}

// validate checks that every task names a domain action with the right arity.
func (h *Helper) validate(tasks []pddl.Task) error {
	for _, t := range tasks {
		a, ok := h.domain.Action(t.Action)
		if !ok {
			return fmt.Errorf("task %s names an unknown action", t)
		}
		if len(a.Parameters) != len(t.Parameters) {
			return fmt.Errorf("task %s: action %s expects %d arguments", t, a.Name, len(a.Parameters))
		}
	}
	return nil
}

func classify(ctx context.Context, err error) ErrorKind {
	var parseErr *pddl.ParseError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &parseErr):
		return KindMalformed
	default:
		return KindPlanner
	}
}
