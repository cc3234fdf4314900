package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/worldloop/domain"
)

// Speaker records what it is asked to say.
type Speaker struct {
	mu   sync.Mutex
	said []string
}

// Say implements domain.Speaker.
func (s *Speaker) Say(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
	return nil
}

// Said returns a copy of the utterances so far.
func (s *Speaker) Said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}

// Engager holds engagements until they are cancelled.
type Engager struct {
	mu      sync.Mutex
	engaged []string
	leave   map[string]func()
}

// Engage implements domain.Engager.
func (e *Engager) Engage(ctx context.Context, handle domain.Handle, disengaging func()) error {
	e.mu.Lock()
	e.engaged = append(e.engaged, handle.ID())
	if e.leave == nil {
		e.leave = make(map[string]func())
	}
	e.leave[handle.ID()] = disengaging
	e.mu.Unlock()

	<-ctx.Done()
	return nil
}

// Engaged returns the ids of every handle engaged so far.
func (e *Engager) Engaged() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.engaged...)
}

// Leave reports that the human behind id shows signs of leaving.
func (e *Engager) Leave(id string) bool {
	e.mu.Lock()
	fn, ok := e.leave[id]
	e.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}
