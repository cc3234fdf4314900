package report

import (
	"context"
	"sync"
)

// InMemoryStore keeps encoded reports in process memory. Reports are
// encoded on save and decoded on retrieval, so callers never share state
// with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string][]byte
	order   []string
}

// NewInMemoryStore returns an empty in-memory report store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[string][]byte)}
}

// Save stores (or overwrites) r.
func (s *InMemoryStore) Save(_ context.Context, r Report) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	s.reports[r.ID] = data
	return nil
}

// Get returns the report or ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, id string) (Report, error) {
	s.mu.RLock()
	data, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return Report{}, ErrNotFound
	}
	return Decode(data)
}

// List returns the ids in save order.
func (s *InMemoryStore) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...), nil
}

// Delete removes the report if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
