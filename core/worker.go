package core

import (
	"context"
	"sync"
)

// SingleTaskQueue runs at most one job at a time and keeps at most one job
// waiting. Pushing while a job runs replaces the waiting one, so bursts of
// requests coalesce into a single follow-up run.
type SingleTaskQueue struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	queued  func(ctx context.Context)
	closed  bool
	wg      sync.WaitGroup
	idle    chan struct{}
}

// NewSingleTaskQueue creates a queue whose jobs receive a context derived from parent.
func NewSingleTaskQueue(parent context.Context) *SingleTaskQueue {
	ctx, cancel := context.WithCancel(parent)
	idle := make(chan struct{})
	close(idle)
	return &SingleTaskQueue{ctx: ctx, cancel: cancel, idle: idle}
}

// Push schedules job. It returns false once the queue is closed.
func (q *SingleTaskQueue) Push(job func(ctx context.Context)) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if q.running {
		q.queued = job
		return true
	}
	q.running = true
	q.idle = make(chan struct{})
	q.wg.Add(1)
	go q.loop(job)
	return true
}

func (q *SingleTaskQueue) loop(job func(ctx context.Context)) {
	defer q.wg.Done()
	for {
		job(q.ctx)

		q.mu.Lock()
		if q.queued == nil || q.closed {
			q.queued = nil
			q.running = false
			close(q.idle)
			q.mu.Unlock()
			return
		}
		job = q.queued
		q.queued = nil
		q.mu.Unlock()
	}
}

// Idle returns a channel closed when no job is running or queued.
func (q *SingleTaskQueue) Idle() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle
}

// Close cancels the running job, drops the queued one and waits for the worker to exit.
func (q *SingleTaskQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.queued = nil
	q.mu.Unlock()
	q.cancel()
	q.wg.Wait()
}
