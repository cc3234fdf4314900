package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/worldloop/pddl"
)

func newPlanCmd(a *app) *cobra.Command {
	var flags stateFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Search a plan for a world state with the configured planner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(flags.statePath)
			if err != nil {
				return err
			}
			p, err := a.cfg.Planner.NewPlanner(a.logger)
			if err != nil {
				return err
			}
			h, err := flags.helper(a, p)
			if err != nil {
				return err
			}
			tasks, err := h.SearchPlan(cmd.Context(), state)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				_, err = fmt.Fprintln(out, "; goal is satisfied")
				return err
			}
			_, err = fmt.Fprintln(out, pddl.FormatPlan(tasks))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
