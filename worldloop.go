// Package worldloop wires a world, a human tracker, a planning helper and a
// controller into one sense-plan-act loop. Most applications interact with
// this package by:
//  1. Creating a Loop via New(), giving at least a planning.Planner
//  2. Starting it with Start, which starts tracking (if a Perception is set)
//     and planning
//  3. Reading or reporting the world and the plan while it runs, then Stop
//
// Every collaborator can be replaced through Options. Defaults are safe for
// local development: an in-memory report store, the default interaction
// domain and placeholder actions for missing speech or engagement drivers.
package worldloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/worldloop/controller"
	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/logging"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/planner"
	"github.com/hupe1980/worldloop/planning"
	"github.com/hupe1980/worldloop/report"
	"github.com/hupe1980/worldloop/tracker"
	"github.com/hupe1980/worldloop/world"
)

// Options configures a Loop.
type Options struct {
	// Initial is the state the world starts from. The domain constants are
	// added to it.
	Initial world.State
	// Actions are the declared actions. Defaults to domain.Actions().
	Actions []domain.ActionDeclaration
	// Goal defaults to domain.EngageableHumansAreGreeted.
	Goal pddl.Expression
	// Planner defaults to a planner that always answers an empty plan.
	Planner planning.Planner
	// Planning tunes the helper; Goal and Logger are set by the Loop.
	Planning func(o *planning.Options)

	// Perception enables the human tracker when set.
	Perception tracker.Perception
	Tracker    tracker.Config
	// InitialFacts are added for every new human, see tracker.HumanParameter.
	InitialFacts []pddl.Fact

	Speaker domain.Speaker
	Engager domain.Engager
	Chat    controller.Chat

	Callbacks  *controller.CallbackManager
	// RetryDelay defaults to controller.DefaultRetryDelay.
	RetryDelay time.Duration
	Store      report.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Loop is the high-level facade aggregating the world and the components
// acting on it.
type Loop struct {
	world      *world.MutableWorld
	data       *world.Data
	helper     *planning.Helper
	factory    *domain.Factory
	controller *controller.Controller
	tracker    *tracker.Tracker
	store      report.Store
	logger     logging.Logger

	mu   sync.Mutex
	subs *core.Disposables
}

// New creates a stopped Loop with optional overrides.
func New(optFns ...func(o *Options)) *Loop {
	opts := Options{
		Actions:    domain.Actions(),
		Goal:       domain.EngageableHumansAreGreeted.Goal,
		Planner:    planner.NewScripted(planner.Returning()),
		Tracker:    tracker.DefaultConfig(),
		Callbacks:  controller.NewCallbackManager(),
		RetryDelay: controller.DefaultRetryDelay,
		Store:      report.NewInMemoryStore(),
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := core.EnsureLogger(opts.Logger)
	d := domain.New(opts.Actions...)
	initial, err := opts.Initial.Updated(world.AddingObjects(d.Constants...))
	if err != nil {
		// Adding objects never contradicts.
		initial = opts.Initial
	}
	w := world.NewMutableWorld(initial)
	data := world.NewData()

	helper := planning.NewHelper(opts.Planner, d, func(o *planning.Options) {
		if opts.Planning != nil {
			opts.Planning(o)
		}
		o.Goal = opts.Goal
		o.Logger = logging.Component(logger, "planning")
	})

	factory := domain.NewFactory(w, data, func(o *domain.FactoryOptions) {
		o.Speaker = opts.Speaker
		o.Engager = opts.Engager
		o.Logger = logging.Component(logger, "actions")
	})

	ctrl := controller.New(w, helper, factory.Declarations(opts.Actions...), func(o *controller.Options) {
		o.Chat = opts.Chat
		o.Callbacks = opts.Callbacks
		o.RetryDelay = opts.RetryDelay
		o.Logger = logging.Component(logger, "controller")
	})

	l := &Loop{
		world:      w,
		data:       data,
		helper:     helper,
		factory:    factory,
		controller: ctrl,
		store:      opts.Store,
		logger:     logger,
	}

	if opts.Perception != nil {
		l.tracker = tracker.New(w, data, opts.Perception, func(o *tracker.Options) {
			o.Config = opts.Tracker
			o.InitialFacts = opts.InitialFacts
			o.KeepsHumans = domain.KeepsHumans(opts.Actions)
			o.Logger = logging.Component(logger, "tracker")
		})
	}
	return l
}

// World returns the live world.
func (l *Loop) World() *world.MutableWorld { return l.world }

// Data returns the attachments of world instances.
func (l *Loop) Data() *world.Data { return l.data }

// Controller returns the sense-plan-act controller.
func (l *Loop) Controller() *controller.Controller { return l.controller }

// Tracker returns the human tracker, nil without perception.
func (l *Loop) Tracker() *tracker.Tracker { return l.tracker }

// Helper returns the planning helper.
func (l *Loop) Helper() *planning.Helper { return l.helper }

// Start starts tracking and planning.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs != nil {
		return errors.New("worldloop: already started")
	}

	subs := &core.Disposables{}
	if l.tracker != nil {
		if err := l.tracker.Start(ctx); err != nil {
			return err
		}
		subs.Add(core.DisposableFunc(l.tracker.Stop))
		subs.Add(l.controller.Tasks().SubscribeAndGet(l.tracker.SetTasks))
	}
	l.controller.Start(ctx)
	l.subs = subs
	l.logger.Info("world loop started tracking=%v", l.tracker != nil)
	return nil
}

// Stop stops planning, then tracking. The world is kept.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		return
	}
	l.controller.Stop()
	l.factory.Close()
	l.subs.Dispose()
	l.subs = nil
	l.logger.Info("world loop stopped")
}

// SetGoal replaces the goal and replans.
func (l *Loop) SetGoal(ctx context.Context, goal pddl.Expression) {
	l.controller.SetGoal(ctx, goal)
}

// Report snapshots the world, the plan and the tracked humans.
func (l *Loop) Report(ctx context.Context) (report.Report, error) {
	r := report.Build(l.world.Get(), l.controller.Tasks().Get(), l.controller.CurrentTask().Get())
	if l.tracker != nil && l.tracker.IsStarted() {
		humans, err := l.tracker.Humans(ctx)
		if err != nil && !errors.Is(err, tracker.ErrNotStarted) {
			return report.Report{}, err
		}
		r.Humans = humans
	}
	return r, nil
}

// SaveReport builds a report and saves it to the store.
func (l *Loop) SaveReport(ctx context.Context) (report.Report, error) {
	r, err := l.Report(ctx)
	if err != nil {
		return report.Report{}, err
	}
	if err := l.store.Save(ctx, r); err != nil {
		return report.Report{}, err
	}
	return r, nil
}

// Store returns the report store.
func (l *Loop) Store() report.Store { return l.store }
