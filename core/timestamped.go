package core

import (
	"math"
	"time"
)

// Forever is the elapsed time reported for values that were never set.
const Forever = time.Duration(math.MaxInt64)

// Timestamped pairs a value with the monotonic instant it was recorded.
type Timestamped[T any] struct {
	Value T
	At    time.Time
}

// Stamp records v now.
func Stamp[T any](v T) Timestamped[T] {
	return Timestamped[T]{Value: v, At: time.Now()}
}

// IsSet reports whether the value was ever recorded.
func (t Timestamped[T]) IsSet() bool { return !t.At.IsZero() }

// Since returns the time elapsed since the value was recorded, or Forever.
func (t Timestamped[T]) Since() time.Duration {
	if t.At.IsZero() {
		return Forever
	}
	return time.Since(t.At)
}

// SinceTime returns the time elapsed since at, or Forever for the zero time.
func SinceTime(at time.Time) time.Duration {
	if at.IsZero() {
		return Forever
	}
	return time.Since(at)
}
