package planning

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoGoal is wrapped by planning errors raised before any goal was set.
var ErrNoGoal = errors.New("no goal set")

// ErrorKind classifies planning failures.
type ErrorKind int

const (
	// KindPlanner is a failure reported by the planner itself.
	KindPlanner ErrorKind = iota
	// KindTimeout is a search that ran past its deadline.
	KindTimeout
	// KindMalformed is a plan that could not be read or names unknown actions.
	KindMalformed
	// KindNoGoal is a search requested without a goal.
	KindNoGoal
)

func (k ErrorKind) String() string {
	switch k {
	case KindPlanner:
		return "planner"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed"
	case KindNoGoal:
		return "no_goal"
	default:
		return "unknown"
	}
}

// Error is returned by Helper.SearchPlan for any failed search.
type Error struct {
	Kind     ErrorKind
	Duration time.Duration
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("planning failed (%s) after %s: %v", e.Kind, e.Duration, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a planning *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}
