// Package controller implements the sense-plan-act loop.
//
// A Controller watches a world.MutableWorld. Every change queues a plan
// search on a single-slot worker, so bursts of updates collapse into one
// follow-up search. The first task of a fresh plan is started unless it is
// already running.
//
// # Plan continuation
//
// When a task finishes with exactly the change its schema declares and the
// plan has a next step, the next step starts at once and the search the
// resulting world update would trigger is skipped. Any other outcome merges
// the change into the world and lets the next search decide.
//
// # Stale plans
//
// Searches run without holding the controller lock. Tasks may therefore
// finish while a search is in flight; such a plan was computed against an
// outdated state and is discarded. The CallbackManager reports it as
// plan_discarded.
//
// # Failures
//
// Planning errors are logged and treated as an empty plan. Action errors
// count as a finish without effect and a new search is scheduled after
// Options.RetryDelay.
//
// Property subscribers (Tasks, CurrentTask, LastFinishedTask) and callbacks
// are invoked with the controller lock held and must not call back into the
// Controller.
package controller
