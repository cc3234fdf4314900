package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/worldloop/report"
)

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect saved reports",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved reports, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, closer, err := a.cfg.Report.NewStore()
				if err != nil {
					return err
				}
				defer closer.Close()
				ids, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					r, err := store.Get(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d facts\t%d tasks\n",
						r.ID, r.CreatedAt.Format(time.RFC3339), len(r.Facts), len(r.Plan))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show [id]",
			Short: "Print a saved report as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, closer, err := a.cfg.Report.NewStore()
				if err != nil {
					return err
				}
				defer closer.Close()
				r, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				data, err := report.Encode(r)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			},
		},
	)
	return cmd
}
