// Package planning renders world snapshots as planning problems and drives an
// external planner.
//
// A Domain holds the static declarations (types, constants, predicates and
// action schemas). A Problem is built from a world.State and a goal: objects
// are the state objects minus the domain constants, the initial state is made
// of the positive facts and the goal is split into its top-level conjuncts.
//
// Helper serialises goal changes and searches so that at most one planner
// call is in flight:
//
//	helper := planning.NewHelper(p, dom, func(o *planning.Options) {
//	    o.Goal = goal
//	    o.Logger = logger
//	})
//	tasks, err := helper.SearchPlan(ctx, w.Get())
//
// Failures are returned as *Error with a Kind and are never retried.
package planning
