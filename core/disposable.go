package core

import "sync"

// Disposable releases a subscription or any other resource.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable. It runs at most once.
func DisposableFunc(fn func()) Disposable {
	return &onceDisposable{fn: fn}
}

type onceDisposable struct {
	once sync.Once
	fn   func()
}

func (d *onceDisposable) Dispose() { d.once.Do(d.fn) }

// Disposables collects disposables and releases them together.
// Adding to an already disposed collection disposes the item at once.
type Disposables struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

// Add registers items for disposal.
func (d *Disposables) Add(items ...Disposable) {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		for _, it := range items {
			it.Dispose()
		}
		return
	}
	d.items = append(d.items, items...)
	d.mu.Unlock()
}

// Dispose releases every registered item in reverse order.
func (d *Disposables) Dispose() {
	d.mu.Lock()
	items := d.items
	d.items = nil
	d.disposed = true
	d.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Dispose()
	}
}
