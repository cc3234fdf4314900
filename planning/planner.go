package planning

import (
	"context"

	"github.com/hupe1980/worldloop/pddl"
)

// Planner turns domain and problem text into an ordered task list. An empty
// list means the goal already holds. Implementations must honour ctx.
type Planner interface {
	Plan(ctx context.Context, domain, problem string) ([]pddl.Task, error)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, domain, problem string) ([]pddl.Task, error)

// Plan calls f.
func (f PlannerFunc) Plan(ctx context.Context, domain, problem string) ([]pddl.Task, error) {
	return f(ctx, domain, problem)
}
