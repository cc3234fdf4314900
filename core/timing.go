package core

import (
	"time"

	"github.com/hupe1980/worldloop/logging"
)

// WorldCallbackTimeLimit is the longest a world-change callback is expected to run.
const WorldCallbackTimeLimit = 100 * time.Millisecond

// Timed runs fn and returns how long it took.
func Timed(fn func()) time.Duration {
	start := time.Now()
	fn()
	return time.Since(start)
}

// LogTimeExceeding runs fn and warns through logger when it takes longer than limit.
func LogTimeExceeding(logger logging.Logger, limit time.Duration, name string, fn func()) {
	if d := Timed(fn); d > limit {
		EnsureLogger(logger).Warn("block took especially long name=%s duration=%s limit=%s", name, d, limit)
	}
}
