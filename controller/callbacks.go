package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

// CallbackType defines the lifecycle points of the control loop where
// callbacks can be executed.
//
// Callbacks run synchronously on the controller's critical path, so they
// must be fast and must not call back into the Controller.
type CallbackType string

const (
	// CallbackPlanFound is triggered when a search produced a plan that is adopted.
	CallbackPlanFound CallbackType = "plan_found"

	// CallbackPlanDiscarded is triggered when a plan is dropped as stale.
	CallbackPlanDiscarded CallbackType = "plan_discarded"

	// CallbackPlanningFailed is triggered when the planner returned an error.
	CallbackPlanningFailed CallbackType = "planning_failed"

	// CallbackTaskStarted is triggered once a task reported it started.
	CallbackTaskStarted CallbackType = "task_started"

	// CallbackTaskFinished is triggered when a task completed, with its change.
	CallbackTaskFinished CallbackType = "task_finished"

	// CallbackTaskFailed is triggered when a task returned an error.
	CallbackTaskFailed CallbackType = "task_failed"
)

// CallbackContext carries the information available at a lifecycle point.
// Fields that do not apply are left zero.
type CallbackContext struct {
	Type     CallbackType
	Plan     []pddl.Task
	Task     *pddl.Task
	Change   world.Change
	Err      error
	Duration time.Duration
	// Reason explains discarded plans.
	Reason string
}

// Callback defines the interface for control loop hooks.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic. Errors are logged by the
	// controller and never stop the loop.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(CallbackTaskStarted, func(ctx context.Context, cc *CallbackContext) error {
//	    log.Printf("started %s", cc.Task)
//	    return nil
//	})
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager is a registry of callbacks per type. Registration and
// execution are safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager instance.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type. Callbacks of one type run
// in registration order.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks runs the callbacks registered for callbackType in order
// and stops at the first error, which is returned.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.Type = callbackType
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("callback %s: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback forwards lifecycle events to a logging function.
//
// Example:
//
//	cb := NewLoggingCallback(CallbackPlanFound, func(msg string) { log.Print(msg) })
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute formats the event and passes it to the logger function.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	message := fmt.Sprintf("[%s]", c.callbackType)
	if callbackCtx.Task != nil {
		message += " task=" + callbackCtx.Task.String()
	}
	if len(callbackCtx.Plan) > 0 {
		message += fmt.Sprintf(" plan_length=%d", len(callbackCtx.Plan))
	}
	if !callbackCtx.Change.IsEmpty() {
		message += " change=" + callbackCtx.Change.String()
	}
	if callbackCtx.Reason != "" {
		message += " reason=" + callbackCtx.Reason
	}
	if callbackCtx.Err != nil {
		message += " error=" + callbackCtx.Err.Error()
	}
	c.logger(message)
	return nil
}
