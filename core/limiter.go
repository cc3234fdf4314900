package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBudgetSpent is returned by CallLimiter.Acquire once the whole budget was
// granted.
var ErrBudgetSpent = errors.New("call budget spent")

// CallLimiter grants a fixed budget of calls to a paid collaborator, such as
// a model answering planning problems. A zero budget grants every call.
// Refused calls do not consume the budget.
type CallLimiter struct {
	mu      sync.Mutex
	budget  int
	granted int
	refused int
}

// NewCallLimiter creates a limiter granting budget calls.
func NewCallLimiter(budget int) *CallLimiter {
	return &CallLimiter{budget: budget}
}

// Acquire grants one call or fails with ErrBudgetSpent.
func (l *CallLimiter) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.budget > 0 && l.granted >= l.budget {
		l.refused++
		return fmt.Errorf("%w: %d calls granted", ErrBudgetSpent, l.granted)
	}
	l.granted++
	return nil
}

// Granted returns how many calls were let through.
func (l *CallLimiter) Granted() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.granted
}

// Refused returns how many calls were turned down.
func (l *CallLimiter) Refused() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refused
}

// Remaining returns the calls left. ok is false for an unlimited budget.
func (l *CallLimiter) Remaining() (n int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.budget == 0 {
		return 0, false
	}
	return l.budget - l.granted, true
}
