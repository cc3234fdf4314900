package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/logging"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

var (
	// ErrAlreadyStarted is returned by Start on a running tracker.
	ErrAlreadyStarted = errors.New("tracker is already started")
	// ErrNotStarted is returned by calls that need a running tracker.
	ErrNotStarted = errors.New("tracker is not started")
)

// Options configures a Tracker.
type Options struct {
	Config Config
	// InitialFacts are added for every new human, HumanParameter standing
	// for the human.
	InitialFacts []pddl.Fact
	// KeepsHumans reports whether an action keeps the humans it involves
	// in memory while it is planned.
	KeepsHumans func(action string) bool
	// CheckConsistency verifies after every commit that tracked humans
	// match the world.
	CheckConsistency bool
	Logger           logging.Logger
}

// Tracker fuses perception signals into facts about the humans around.
//
// All tracking state is owned by a single loop goroutine. Perception
// callbacks, world notifications, timers and zone pollers post events to
// it, and each event is committed to the world as one change.
type Tracker struct {
	world       *world.MutableWorld
	data        *world.Data
	perception  Perception
	cfg         Config
	initial     []pddl.Fact
	keepsHumans func(string) bool
	check       bool
	logger      logging.Logger

	life   sync.Mutex // serializes Start and Stop
	cancel context.CancelFunc
	subs   *core.Disposables

	mu      sync.Mutex
	mailbox *mailbox

	// Loop-owned.
	group   *errgroup.Group
	gctx    context.Context
	humans  []*human
	engaged *pddl.Instance
	timers  map[*time.Timer]struct{}
	depth   int
	pending []world.ChangeFunc
}

// New creates a stopped tracker.
func New(w *world.MutableWorld, data *world.Data, perception Perception, optFns ...func(o *Options)) *Tracker {
	opts := Options{
		Config:      DefaultConfig(),
		KeepsHumans: func(string) bool { return false },
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Tracker{
		world:       w,
		data:        data,
		perception:  perception,
		cfg:         opts.Config,
		initial:     opts.InitialFacts,
		keepsHumans: opts.KeepsHumans,
		check:       opts.CheckConsistency,
		logger:      core.EnsureLogger(opts.Logger),
		timers:      make(map[*time.Timer]struct{}),
	}
}

// IsStarted reports whether the tracker runs.
func (t *Tracker) IsStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mailbox != nil
}

// Start subscribes to perception and to the world. The tracker runs until
// Stop is called or ctx is cancelled.
func (t *Tracker) Start(ctx context.Context) error {
	t.life.Lock()
	defer t.life.Unlock()
	if t.subs != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	mb := newMailbox()
	subs := &core.Disposables{}
	t.cancel, t.subs, t.group, t.gctx = cancel, subs, g, gctx
	t.mu.Lock()
	t.mailbox = mb
	t.mu.Unlock()

	t.logger.Debug("starting human tracker")
	g.Go(func() error {
		t.loop(gctx, mb)
		return nil
	})

	subs.Add(t.perception.Humans().SubscribeAndGet(func(handles []Handle) {
		handles = append([]Handle(nil), handles...)
		mb.post(func() { t.processHumans(handles) })
	}))
	subs.Add(t.perception.Touched().Subscribe(func(struct{}) {
		mb.post(func() { t.onBlindInteraction(touch) })
	}))
	if heard := t.perception.SpeechHeard(); heard != nil {
		subs.Add(heard.Subscribe(func(struct{}) {
			mb.post(func() { t.onBlindInteraction(speech) })
		}))
	}
	subs.Add(t.world.SubscribeAndGet(func(s world.State) {
		core.LogTimeExceeding(t.logger, core.WorldCallbackTimeLimit, "tracker world callback", func() {
			disengaging, engaged := readEngagement(s)
			mb.post(func() { t.onWorld(disengaging, engaged) })
		})
	}))
	return nil
}

// Stop disposes every subscription, cancels timers and pollers, and waits
// for them. Known humans are dropped from memory but stay in the world.
func (t *Tracker) Stop() {
	t.life.Lock()
	defer t.life.Unlock()
	if t.subs == nil {
		return
	}

	t.mu.Lock()
	mb := t.mailbox
	t.mailbox = nil
	t.mu.Unlock()

	t.subs.Dispose()
	mb.close()
	t.cancel()
	_ = t.group.Wait()
	t.subs, t.cancel = nil, nil

	for _, h := range t.humans {
		h.forget()
	}
	t.humans = nil
	t.engaged = nil
	for tm := range t.timers {
		tm.Stop()
	}
	t.timers = make(map[*time.Timer]struct{})
	t.pending = nil
	t.depth = 0
	t.logger.Debug("human tracker stopped")
}

// SetTasks tells the tracker which humans the current plan refers to.
func (t *Tracker) SetTasks(tasks []pddl.Task) {
	tasks = append([]pddl.Task(nil), tasks...)
	t.post(func() { t.onTasks(tasks) })
}

// SetNoHuman forgets every known human.
func (t *Tracker) SetNoHuman() {
	t.post(func() {
		removed := make([]pddl.Instance, len(t.humans))
		for i, h := range t.humans {
			removed[i] = h.instance
			h.forget()
		}
		t.humans = nil
		t.addChange(world.RemovingObjects(removed...))
		t.updatePreferred()
	})
}

// Flush waits until every event posted before the call was processed.
func (t *Tracker) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !t.post(func() { close(done) }) {
		return ErrNotStarted
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Humans returns the status of every tracked human.
func (t *Tracker) Humans(ctx context.Context) ([]HumanStatus, error) {
	var out []HumanStatus
	done := make(chan struct{})
	if !t.post(func() {
		for _, h := range t.humans {
			out = append(out, h.status())
		}
		close(done)
	}) {
		return nil, ErrNotStarted
	}
	select {
	case <-done:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Tracker) post(ev func()) bool {
	t.mu.Lock()
	mb := t.mailbox
	t.mu.Unlock()
	if mb == nil {
		return false
	}
	return mb.post(ev)
}

// loop runs every event inside its own transaction.
func (t *Tracker) loop(ctx context.Context, mb *mailbox) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-mb.ready:
		}
		for _, ev := range mb.take() {
			if ctx.Err() != nil {
				return
			}
			t.transaction(ev)
		}
	}
}

// readEngagement extracts the disengaging humans and the human engaged by
// the robot from a world snapshot.
func readEngagement(s world.State) (map[string]bool, *pddl.Instance) {
	disengaging := make(map[string]bool)
	for _, f := range s.FactsOf(domain.IsDisengagingName) {
		if !f.Negated && len(f.Args) == 1 {
			disengaging[f.Args[0].Name] = true
		}
	}
	var engaged *pddl.Instance
	for _, f := range s.FactsOf(domain.EngagesName) {
		if !f.Negated && len(f.Args) == 2 && f.Args[0].Equal(domain.Self) {
			h := f.Args[1]
			engaged = &h
			break
		}
	}
	return disengaging, engaged
}

func (t *Tracker) find(inst pddl.Instance) *human {
	for _, h := range t.humans {
		if h.instance.Equal(inst) {
			return h
		}
	}
	return nil
}

func (t *Tracker) findByName(name string) *human {
	for _, h := range t.humans {
		if h.instance.Name == name {
			return h
		}
	}
	return nil
}

func (t *Tracker) findByHandle(handle Handle) *human {
	for _, h := range t.humans {
		if h.hasHandle(handle) {
			return h
		}
	}
	return nil
}

func (t *Tracker) isKnown(h *human) bool {
	for _, k := range t.humans {
		if k == h {
			return true
		}
	}
	return false
}

func (t *Tracker) remove(h *human) {
	for i, k := range t.humans {
		if k == h {
			t.humans = append(t.humans[:i], t.humans[i+1:]...)
			return
		}
	}
}

// declare creates a human, attaches handle to it if any and queues its
// initial facts.
func (t *Tracker) declare(handle Handle) *human {
	inst := domain.Human.Instance(lowestFreeName(t.humans))
	h := newHuman(inst, handle)
	t.humans = append(t.humans, h)

	facts, err := pddl.SplitFactsByPolarity(core.NewSet(bindHuman(t.initial, inst)...))
	if err != nil {
		t.logger.Warn("ignoring initial facts human=%s error=%v", inst, err)
	}
	t.addChange(world.Change{Objects: core.Adding(inst), Facts: facts})

	if handle != nil {
		t.data.Set(inst, world.HandleKey, handle)
		t.logger.Debug("new human visible human=%s handle=%s", inst, handle.ID())
	}
	return h
}
