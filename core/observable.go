package core

import "sync"

// Observer is the read side of an observable value stream.
type Observer[T any] interface {
	Subscribe(fn func(T)) Disposable
}

// Readable is the read side of a Property.
type Readable[T any] interface {
	Observer[T]
	Get() T
	SubscribeAndGet(fn func(T)) Disposable
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Observable delivers values to subscribers in the order they were posted.
//
// Subscribers are invoked outside the internal lock. A value posted while a
// delivery is in progress (from a subscriber or another goroutine) is queued
// and delivered by the call that is already delivering, so every subscriber
// observes the same global order. The zero value is ready to use.
type Observable[T any] struct {
	mu          sync.Mutex
	subscribers []subscriber[T]
	nextID      uint64
	queue       []T
	delivering  bool
}

// Subscribe registers fn and returns a Disposable that unregisters it.
func (o *Observable[T]) Subscribe(fn func(T)) Disposable {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.subscribers = append(o.subscribers, subscriber[T]{id: id, fn: fn})
	o.mu.Unlock()

	return DisposableFunc(func() { o.unsubscribe(id) })
}

func (o *Observable[T]) unsubscribe(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, s := range o.subscribers {
		if s.id == id {
			o.subscribers = append(o.subscribers[:i:i], o.subscribers[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (o *Observable[T]) SubscriberCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subscribers)
}

// Notify posts v and delivers it, unless a delivery is already running.
func (o *Observable[T]) Notify(v T) {
	o.Post(v)()
}

// Post enqueues v and returns a function delivering the pending queue.
// Callers holding their own lock post under it and call the returned
// function after releasing it, which keeps delivery order equal to commit order.
// The returned function is a no-op when another call is already delivering.
func (o *Observable[T]) Post(v T) (deliver func()) {
	o.mu.Lock()
	o.queue = append(o.queue, v)
	if o.delivering {
		o.mu.Unlock()
		return func() {}
	}
	o.delivering = true
	o.mu.Unlock()
	return o.drain
}

func (o *Observable[T]) drain() {
	done := false
	defer func() {
		if !done {
			// A subscriber panicked; let the next Post deliver what is left.
			o.mu.Lock()
			o.delivering = false
			o.mu.Unlock()
		}
	}()

	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.delivering = false
			o.mu.Unlock()
			done = true
			return
		}
		v := o.queue[0]
		var zero T
		o.queue[0] = zero
		o.queue = o.queue[1:]
		subs := make([]subscriber[T], len(o.subscribers))
		copy(subs, o.subscribers)
		o.mu.Unlock()

		for _, s := range subs {
			s.fn(v)
		}
	}
}

// Signal is an Observable of discrete events.
type Signal[T any] struct {
	Observable[T]
}

// Emit delivers v to every subscriber.
func (s *Signal[T]) Emit(v T) { s.Notify(v) }

// Property holds a value and notifies subscribers whenever it changes.
type Property[T any] struct {
	Observable[T]
	mu    sync.Mutex
	value T
	equal func(a, b T) bool
}

// NewProperty creates a property for comparable values.
func NewProperty[T comparable](initial T) *Property[T] {
	return &Property[T]{value: initial, equal: func(a, b T) bool { return a == b }}
}

// NewPropertyFunc creates a property that compares values with equal.
// A nil equal makes every Set notify.
func NewPropertyFunc[T any](initial T, equal func(a, b T) bool) *Property[T] {
	if equal == nil {
		equal = func(T, T) bool { return false }
	}
	return &Property[T]{value: initial, equal: equal}
}

// Get returns the current value.
func (p *Property[T]) Get() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Set stores v and notifies if it differs from the current value.
func (p *Property[T]) Set(v T) {
	p.Update(func(T) T { return v })
}

// Update replaces the value with fn(current) atomically and notifies on change.
func (p *Property[T]) Update(fn func(T) T) {
	p.mu.Lock()
	next := fn(p.value)
	if p.equal(p.value, next) {
		p.mu.Unlock()
		return
	}
	p.value = next
	deliver := p.Post(next)
	p.mu.Unlock()
	deliver()
}

// SubscribeAndGet subscribes fn and immediately calls it with the current value.
func (p *Property[T]) SubscribeAndGet(fn func(T)) Disposable {
	d := p.Subscribe(fn)
	fn(p.Get())
	return d
}
