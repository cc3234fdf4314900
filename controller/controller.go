package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/logging"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/planning"
	"github.com/hupe1980/worldloop/world"
)

// DefaultRetryDelay is how long the controller waits before replanning
// after a task failed.
const DefaultRetryDelay = time.Second

// Options configures a Controller.
type Options struct {
	// Chat is the ambient conversation switched on and off according to the
	// running action. Nil disables chat handling.
	Chat       Chat
	// Callbacks receives lifecycle events.
	Callbacks  *CallbackManager
	// RetryDelay is the pause before replanning after a failed task.
	RetryDelay time.Duration
	// Logger receives control loop diagnostics.
	Logger     logging.Logger
}

// Controller runs the sense-plan-act loop: every world change triggers a
// plan search, the first task of the plan is kept running or started, and
// tasks that finish exactly as declared hand over to the next planned task
// without a new search.
//
// All mutable fields are guarded by mu. World notifications never take mu;
// they only queue a search on the planning worker.
type Controller struct {
	world      *world.MutableWorld
	helper     *planning.Helper
	actions    map[string]Declaration
	chat       Chat
	callbacks  *CallbackManager
	retryDelay time.Duration
	logger     logging.Logger

	tasks        *core.Property[[]pddl.Task]
	currentTask  *core.Property[*pddl.Task]
	lastFinished *core.Property[*pddl.Task]
	finished     core.Signal[pddl.Task]

	active atomic.Bool

	life             sync.Mutex // serializes Start and Stop
	mu               sync.Mutex
	running          bool
	ctx              context.Context
	cancel           context.CancelFunc
	worker           *core.SingleTaskQueue
	subscriptions    *core.Disposables
	current          *pddl.Task
	runningTask      *core.Task[world.Change]
	chatRun          *core.Task[struct{}]
	hasDoneAPlan     bool
	continuing       bool
	continuedVersion uint64
	// planVersion is the world version the current plan is based on.
	planVersion      uint64
	retry            *time.Timer
	wg               sync.WaitGroup
}

// New creates a stopped controller over w, searching plans with helper and
// executing the given action declarations.
func New(w *world.MutableWorld, helper *planning.Helper, declarations []Declaration, optFns ...func(o *Options)) *Controller {
	opts := Options{
		Callbacks:  NewCallbackManager(),
		RetryDelay: DefaultRetryDelay,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	actions := make(map[string]Declaration, len(declarations))
	for _, d := range declarations {
		actions[d.Name()] = d
	}

	return &Controller{
		world:        w,
		helper:       helper,
		actions:      actions,
		chat:         opts.Chat,
		callbacks:    opts.Callbacks,
		retryDelay:   opts.RetryDelay,
		logger:       core.EnsureLogger(opts.Logger),
		tasks:        core.NewPropertyFunc[[]pddl.Task](nil, pddl.TasksEqual),
		currentTask:  core.NewPropertyFunc[*pddl.Task](nil, sameTask),
		lastFinished: core.NewPropertyFunc[*pddl.Task](nil, nil),
	}
}

func sameTask(a, b *pddl.Task) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Tasks is the current plan. It is nil before the first search and after a
// failed one.
func (c *Controller) Tasks() *core.Property[[]pddl.Task] { return c.tasks }

// CurrentTask is the task being executed, or nil.
func (c *Controller) CurrentTask() *core.Property[*pddl.Task] { return c.currentTask }

// LastFinishedTask is the last task that completed. Every completion
// notifies, including repeated ones.
func (c *Controller) LastFinishedTask() *core.Property[*pddl.Task] { return c.lastFinished }

// Callbacks returns the callback registry.
func (c *Controller) Callbacks() *CallbackManager { return c.callbacks }

// IsRunning reports whether the loop is started.
func (c *Controller) IsRunning() bool { return c.active.Load() }

// Start subscribes to the world and runs the loop until Stop or until ctx
// is cancelled. Starting a running controller only logs a warning.
func (c *Controller) Start(ctx context.Context) {
	c.life.Lock()
	defer c.life.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hasDoneAPlan = false
	if c.running {
		c.logger.Warn("controller was started but it was already running")
		return
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.worker = core.NewSingleTaskQueue(c.ctx)
	c.subscriptions = &core.Disposables{}
	c.running = true
	c.active.Store(true)

	worker := c.worker
	c.subscriptions.Add(c.world.SubscribeAndGet(func(world.State) {
		core.LogTimeExceeding(c.logger, core.WorldCallbackTimeLimit, "controller world callback", func() {
			if c.active.Load() {
				worker.Push(c.searchPlanAndRun)
			}
		})
	}))
	c.logger.Info("controller started actions=%d", len(c.actions))
}

// Stop cancels the current task and the pending searches. The world is kept.
func (c *Controller) Stop() {
	c.life.Lock()
	defer c.life.Unlock()
	if !c.active.Load() {
		return
	}
	// Cancel first: a task that has not signalled started yet holds mu.
	c.active.Store(false)
	c.cancel()

	c.mu.Lock()
	c.running = false
	c.hasDoneAPlan = false
	c.continuing = false
	c.subscriptions.Dispose()
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	c.stopCurrentTask()
	c.stopChat()
	worker := c.worker
	c.mu.Unlock()

	worker.Close()
	c.wg.Wait()
	c.logger.Info("controller stopped")
}

// SetGoal restarts the loop with a new goal.
func (c *Controller) SetGoal(ctx context.Context, goal pddl.Expression) {
	c.Stop()
	c.helper.SetGoal(goal)
	c.Start(ctx)
}

// Idle returns a channel closed when no search is running or queued.
func (c *Controller) Idle() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.worker == nil {
		idle := make(chan struct{})
		close(idle)
		return idle
	}
	return c.worker.Idle()
}

// searchPlanAndRun runs on the planning worker. The planner is called
// without holding mu; tasks finishing meanwhile make the result stale.
func (c *Controller) searchPlanAndRun(ctx context.Context) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	state := c.world.Get()
	if c.continuing && state.Version() == c.continuedVersion {
		c.mu.Unlock()
		c.logger.Debug("skipping search while the plan continues version=%d", state.Version())
		return
	}
	c.continuing = false

	var finished []pddl.Task
	sub := c.finished.Subscribe(func(t pddl.Task) { finished = append(finished, t) })
	c.mu.Unlock()

	start := time.Now()
	plan, err := c.helper.SearchPlan(ctx, state)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	sub.Dispose()
	if !c.running || ctx.Err() != nil {
		return
	}

	if err != nil {
		c.fire(CallbackPlanningFailed, &CallbackContext{Err: err, Duration: elapsed})
		if len(finished) > 0 {
			c.discard(nil, "at least one task finished since the search began")
			return
		}
		plan = nil
	} else {
		if len(finished) > len(plan) {
			c.discard(plan, "more tasks finished than the plan has steps")
			return
		}
		if len(finished) > 0 {
			c.discard(plan, "tasks finished during the search")
			return
		}
		c.fire(CallbackPlanFound, &CallbackContext{Plan: plan, Duration: elapsed})
	}

	c.tasks.Set(plan)
	c.planVersion = state.Version()
	var head *pddl.Task
	if len(plan) > 0 {
		head = &plan[0]
	}

	if !c.hasDoneAPlan || !sameTask(head, c.current) {
		c.hasDoneAPlan = true
		c.switchTask(head)
	}
}

func (c *Controller) discard(plan []pddl.Task, reason string) {
	c.logger.Debug("skipping outdated plan reason=%q", reason)
	c.fire(CallbackPlanDiscarded, &CallbackContext{Plan: plan, Reason: reason})
}

// switchTask stops the current task and starts task. mu must be held.
func (c *Controller) switchTask(task *pddl.Task) {
	c.stopCurrentTask()
	if err := c.startTask(task); err != nil {
		c.logger.Error("cannot start task task=%s error=%v", taskName(task), err)
	}
}

// stopCurrentTask cancels the running action and waits for it. mu must be held.
func (c *Controller) stopCurrentTask() {
	if c.current == nil && c.runningTask == nil {
		return
	}
	c.logger.Info("stopping task task=%s", taskName(c.current))
	if c.runningTask != nil {
		_, _ = c.runningTask.CancelAndWait()
		c.runningTask = nil
	}
	c.setCurrent(nil)
}

func (c *Controller) setCurrent(task *pddl.Task) {
	c.current = task
	c.currentTask.Set(task)
}

// startTask makes task current and runs its action until it reports being
// started. A nil task only stops the chat. mu must be held.
func (c *Controller) startTask(task *pddl.Task) error {
	if c.current != nil {
		return fmt.Errorf("%w: cannot start %s while %s runs", ErrTaskStillCurrent, taskName(task), c.current)
	}
	if task == nil {
		c.stopChat()
		c.logger.Info("nothing to do")
		return nil
	}

	decl, ok := c.actions[task.Action]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, task.Action)
	}
	args, err := c.resolve(*task)
	if err != nil {
		return err
	}

	t := *task
	c.setCurrent(&t)
	c.logger.Info("starting task task=%s", t)
	c.applyChatState(decl.Chat)

	started := time.Now()
	run := core.Go(c.ctx, func(ctx context.Context, onStarted func()) (world.Change, error) {
		change, err := decl.Action.Run(ctx, onStarted, args)
		if ctx.Err() != nil {
			return world.Change{}, ctx.Err()
		}
		return change, err
	})
	c.runningTask = run

	c.wg.Add(1)
	go c.await(run, t, decl.Schema, args, started)

	if err := run.WaitStarted(c.ctx); err != nil {
		c.logger.Debug("task ended before it started task=%s error=%v", t, err)
		return nil
	}
	c.logger.Debug("task started task=%s", t)
	c.fire(CallbackTaskStarted, &CallbackContext{Task: &t})
	return nil
}

// resolve maps task parameters to world objects or domain constants.
func (c *Controller) resolve(task pddl.Task) ([]pddl.Instance, error) {
	state := c.world.Get()
	domain := c.helper.Domain()
	args := make([]pddl.Instance, len(task.Parameters))
	for i, name := range task.Parameters {
		if obj, ok := state.Object(name); ok {
			args[i] = obj
			continue
		}
		if obj, ok := domain.Constant(name); ok {
			args[i] = obj
			continue
		}
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownObject, name, task)
	}
	return args, nil
}

// await collects the outcome of one action run.
func (c *Controller) await(run *core.Task[world.Change], task pddl.Task, schema pddl.Action, args []pddl.Instance, started time.Time) {
	defer c.wg.Done()
	change, err := run.Wait(context.Background())
	elapsed := time.Since(started)
	switch {
	case errors.Is(err, context.Canceled):
		c.logger.Debug("task was cancelled task=%s", task)
	case err != nil:
		c.logger.Warn("task finished with error task=%s duration=%s error=%v", task, elapsed, err)
		c.fail(run, task, err)
	default:
		c.logger.Debug("task was successful task=%s duration=%s change=%q", task, elapsed, change)
		c.complete(run, task, change, schema, args)
	}
}

// complete merges the change of a finished task into the world. When the
// task produced exactly its declared effect and the plan has a next step,
// that step starts at once and the search the world update would trigger
// is skipped.
func (c *Controller) complete(run *core.Task[world.Change], task pddl.Task, change world.Change, schema pddl.Action, args []pddl.Instance) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resuming := false
	if c.running && c.runningTask == run {
		expected, err := world.EffectToChange(schema, args)
		if tasks := c.tasks.Get(); err == nil && change.Equal(expected) && len(tasks) > 1 {
			c.logger.Info("starting next task without replanning task=%s next=%s", task, tasks[1])
			next := tasks[1]
			c.tasks.Set(tasks[1:])
			c.runningTask = nil
			c.setCurrent(nil)
			if err := c.startTask(&next); err != nil {
				c.logger.Error("cannot start next task task=%s error=%v", next, err)
			} else {
				resuming = true
			}
		} else {
			c.runningTask = nil
			c.setCurrent(nil)
		}
	}

	c.finished.Emit(task)
	c.lastFinished.Set(&task)
	c.fire(CallbackTaskFinished, &CallbackContext{Task: &task, Change: change})

	snap, changed, err := c.world.Commit(change)
	if err != nil {
		c.logger.Error("cannot apply task change task=%s change=%q error=%v", task, change, err)
	}
	switch {
	case resuming && err == nil && preCommitVersion(snap, changed) == c.planVersion:
		c.planVersion = snap.Version()
		c.continuing = changed
		c.continuedVersion = snap.Version()
	case resuming, c.running:
		// Another commit landed since the plan was computed, or the plan is
		// over: the next search must run.
		c.continuing = false
		if !changed {
			c.worker.Push(c.searchPlanAndRun)
		}
	}
}

func preCommitVersion(snap world.State, changed bool) uint64 {
	if changed {
		return snap.Version() - 1
	}
	return snap.Version()
}

// fail treats a failed task as finished without effect and schedules a new
// search after the retry delay.
func (c *Controller) fail(run *core.Task[world.Change], task pddl.Task, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runningTask == run {
		c.runningTask = nil
		c.setCurrent(nil)
	}
	c.finished.Emit(task)
	c.lastFinished.Set(&task)
	c.fire(CallbackTaskFailed, &CallbackContext{Task: &task, Err: err})

	if !c.running {
		return
	}
	c.continuing = false
	worker := c.worker
	if c.retry != nil {
		c.retry.Stop()
	}
	c.retry = time.AfterFunc(c.retryDelay, func() {
		if c.active.Load() {
			worker.Push(c.searchPlanAndRun)
		}
	})
}

// applyChatState starts or stops the chat as the next action requires.
func (c *Controller) applyChatState(state ChatState) {
	switch state {
	case ChatRunning:
		if c.chat == nil || c.chatRun != nil {
			return
		}
		chat := c.chat
		c.chatRun = core.Go(c.ctx, func(ctx context.Context, started func()) (struct{}, error) {
			started()
			return struct{}{}, chat.Run(ctx)
		})
		c.logger.Debug("chat started")
	case ChatStopped:
		c.stopChat()
	}
}

func (c *Controller) stopChat() {
	if c.chatRun == nil {
		return
	}
	_, _ = c.chatRun.CancelAndWait()
	c.chatRun = nil
	c.logger.Debug("chat stopped")
}

func (c *Controller) fire(t CallbackType, cc *CallbackContext) {
	if err := c.callbacks.ExecuteCallbacks(c.ctx, t, cc); err != nil {
		c.logger.Warn("callback failed type=%s error=%v", t, err)
	}
}

func taskName(t *pddl.Task) string {
	if t == nil {
		return "nothing"
	}
	return t.String()
}
