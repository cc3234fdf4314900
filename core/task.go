package core

import (
	"context"
	"errors"
	"sync"
)

// ErrNotStarted is returned by WaitStarted when the job ended before signalling start.
var ErrNotStarted = errors.New("task ended before it started")

// Task is a cancellable asynchronous job with a distinct "started" milestone.
type Task[T any] struct {
	cancel      context.CancelFunc
	started     chan struct{}
	startedOnce sync.Once
	done        chan struct{}
	result      T
	err         error
}

// Go runs fn in a goroutine. fn must call started once it is under way and
// should return promptly when ctx is cancelled.
func Go[T any](parent context.Context, fn func(ctx context.Context, started func()) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(parent)
	t := &Task[T]{
		cancel:  cancel,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer cancel()
		t.result, t.err = fn(ctx, t.markStarted)
	}()
	return t
}

func (t *Task[T]) markStarted() {
	t.startedOnce.Do(func() { close(t.started) })
}

// Started returns a channel closed when the job reports it started.
func (t *Task[T]) Started() <-chan struct{} { return t.started }

// Done returns a channel closed when the job returned.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Cancel requests cooperative cancellation. It does not wait.
func (t *Task[T]) Cancel() { t.cancel() }

// WaitStarted blocks until the job started, ended, or ctx is done.
func (t *Task[T]) WaitStarted(ctx context.Context) error {
	select {
	case <-t.started:
		return nil
	default:
	}
	select {
	case <-t.started:
		return nil
	case <-t.done:
		select {
		case <-t.started:
			return nil
		default:
		}
		if t.err != nil {
			return t.err
		}
		return ErrNotStarted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the job returned or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// CancelAndWait cancels the job and waits for it to unwind.
func (t *Task[T]) CancelAndWait() (T, error) {
	t.cancel()
	<-t.done
	return t.result, t.err
}
