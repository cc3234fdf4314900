// Package core provides the foundational building blocks shared by every
// worldloop component:
//
//   - Set and SetDelta, the delta algebra underlying world changes
//   - Observable, Signal and Property, an order-preserving publish/subscribe layer
//   - Disposable and Disposables for subscription lifetimes
//   - Timestamped values on the monotonic clock
//   - SingleTaskQueue, a coalescing single-worker queue
//   - Task, a cancellable future with a "started" milestone
//   - CallLimiter and timing helpers
//
// The package has no knowledge of planning or perception; higher layers build
// on these types.
package core
