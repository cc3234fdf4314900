package world

import (
	"sync"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/pddl"
)

// MutableWorld is the thread-safe owner of the live world state.
//
// Every mutation goes through Update. Subscribers receive the post-update
// snapshot outside the lock, in commit order.
type MutableWorld struct {
	mu       sync.Mutex
	objects  core.Set[pddl.Instance]
	facts    core.Set[pddl.Fact]
	version  uint64
	observed core.Observable[State]
}

// NewMutableWorld creates a world initialised with initial.
func NewMutableWorld(initial State) *MutableWorld {
	return &MutableWorld{
		objects: initial.objects.Clone(),
		facts:   initial.facts.Clone(),
	}
}

// Subscribe registers fn for post-update snapshots.
func (w *MutableWorld) Subscribe(fn func(State)) core.Disposable {
	return w.observed.Subscribe(fn)
}

// SubscribeAndGet subscribes fn and calls it with the current snapshot.
func (w *MutableWorld) SubscribeAndGet(fn func(State)) core.Disposable {
	d := w.Subscribe(fn)
	fn(w.Get())
	return d
}

// Get returns a consistent snapshot.
func (w *MutableWorld) Get() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *MutableWorld) snapshot() State {
	return State{objects: w.objects.Clone(), facts: w.facts.Clone(), version: w.version}
}

// Update applies change and reports whether anything changed. Objects are
// added first, along with the arguments of added facts, then facts are
// updated after the default rules, and objects are removed last together
// with every fact mentioning them. A contradictory change is rejected
// without effect.
func (w *MutableWorld) Update(change Change) (bool, error) {
	_, changed, err := w.Commit(change)
	return changed, err
}

// Commit is Update returning the snapshot the change produced. When nothing
// changed the snapshot is the current state.
func (w *MutableWorld) Commit(change Change) (State, bool, error) {
	if change.IsEmpty() {
		return w.Get(), false, nil
	}
	facts, err := applyDefaultRules(change.Facts)
	if err != nil {
		return State{}, false, err
	}

	w.mu.Lock()
	return w.commitLocked(change.Objects, facts)
}

// commitLocked applies a resolved change, publishes the snapshot and
// releases w.mu.
func (w *MutableWorld) commitLocked(objects core.SetDelta[pddl.Instance], facts core.SetDelta[pddl.Fact]) (State, bool, error) {
	changed := applyChange(w.objects, w.facts, objects, facts)
	deliver := func() {}
	if changed {
		w.version++
	}
	snap := w.snapshot()
	if changed {
		deliver = w.observed.Post(snap)
	}
	w.mu.Unlock()

	deliver()
	return snap, changed, nil
}

// UpdateFacts applies a fact delta atomically.
func (w *MutableWorld) UpdateFacts(delta core.SetDelta[pddl.Fact]) (bool, error) {
	return w.Update(Change{Facts: delta})
}

// EnsureFact adds f if absent.
func (w *MutableWorld) EnsureFact(f pddl.Fact) (bool, error) {
	return w.Update(AddingFacts(f))
}

// RemoveFact removes f if present.
func (w *MutableWorld) RemoveFact(f pddl.Fact) bool {
	changed, _ := w.Update(RemovingFacts(f))
	return changed
}

// Set replaces the whole state with s. The diff is computed and applied
// under the same lock.
func (w *MutableWorld) Set(s State) (bool, error) {
	w.mu.Lock()
	change := Diff(w.snapshot(), s)
	if change.IsEmpty() {
		w.mu.Unlock()
		return false, nil
	}
	facts, err := applyDefaultRules(change.Facts)
	if err != nil {
		w.mu.Unlock()
		return false, err
	}
	_, changed, err := w.commitLocked(change.Objects, facts)
	return changed, err
}
