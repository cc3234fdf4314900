package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/planner"
	"github.com/hupe1980/worldloop/planning"
)

// stateFlags are shared by the commands reading a world state.
type stateFlags struct {
	statePath string
	goal      string
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.statePath, "state", "s", "", "YAML file holding the world state")
	cmd.Flags().StringVarP(&f.goal, "goal", "g", "", "Goal name, overriding the configured goal")
}

// helper builds a planning helper over p for the selected goal.
func (f *stateFlags) helper(a *app, p planning.Planner) (*planning.Helper, error) {
	name := a.cfg.Planning.Goal
	if f.goal != "" {
		name = f.goal
	}
	goal, err := domain.GoalByName(name)
	if err != nil {
		return nil, err
	}
	return planning.NewHelper(p, domain.Default(), func(o *planning.Options) {
		o.Goal = goal
		o.SlowPlanning = a.cfg.Planning.SlowPlanning
		o.Timeout = a.cfg.Planning.Timeout
		o.Logger = a.logger
	}), nil
}

func newProblemCmd(a *app) *cobra.Command {
	var flags stateFlags
	cmd := &cobra.Command{
		Use:   "problem",
		Short: "Print the PDDL problem of a world state",
		Long: `Prints the planning problem built from the world state and the goal.

Example:
  worldloop problem --state state.yaml --goal "Engageable humans are happy"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(flags.statePath)
			if err != nil {
				return err
			}
			h, err := flags.helper(a, planner.NewScripted())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), h.Problem(state).String())
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
