// Package logging provides a minimal logging interface and adapters for worldloop.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the world, tracker, planning helper and controller use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and WorldLogger built on Go's structured logging
//   - ZapAdapter for applications already using go.uber.org/zap
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json"})
//	ctrl := controller.New(world, helper, actions, func(o *controller.Options) {
//		o.Logger = logging.Component(logger, "controller")
//	})
//
// Messages are printf-style with key=value suffixes, for example
// "task started task=%s".
package logging
