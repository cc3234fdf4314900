package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/worldloop"
	"github.com/hupe1980/worldloop/controller"
	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/planning"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		flags    stateFlags
		duration time.Duration
		trace    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sense-plan-act loop over a world state",
		Long: `Runs the loop until the goal is reached, the duration elapses or the
process is interrupted, then saves a report of the final world.

Actions without a speech or engagement driver are simulated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadState(flags.statePath)
			if err != nil {
				return err
			}
			name := a.cfg.Planning.Goal
			if flags.goal != "" {
				name = flags.goal
			}
			goal, err := domain.GoalByName(name)
			if err != nil {
				return err
			}
			p, err := a.cfg.Planner.NewPlanner(a.logger)
			if err != nil {
				return err
			}
			store, closer, err := a.cfg.Report.NewStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			l := worldloop.New(func(o *worldloop.Options) {
				o.Initial = state
				o.Goal = goal
				o.Planner = p
				o.Planning = func(po *planning.Options) {
					po.SlowPlanning = a.cfg.Planning.SlowPlanning
					po.Timeout = a.cfg.Planning.Timeout
				}
				o.Tracker = a.cfg.Tracker
				o.RetryDelay = a.cfg.Controller.RetryDelay
				o.Store = store
				o.Logger = a.logger
			})

			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			reached := make(chan struct{}, 1)
			l.Controller().Callbacks().RegisterCallback(controller.NewFunctionCallback(controller.CallbackPlanFound,
				func(_ context.Context, cc *controller.CallbackContext) error {
					if len(cc.Plan) == 0 {
						select {
						case reached <- struct{}{}:
						default:
						}
					}
					return nil
				}))

			if trace {
				out := cmd.OutOrStdout()
				for _, ct := range []controller.CallbackType{
					controller.CallbackPlanFound,
					controller.CallbackPlanDiscarded,
					controller.CallbackPlanningFailed,
					controller.CallbackTaskStarted,
					controller.CallbackTaskFinished,
					controller.CallbackTaskFailed,
				} {
					l.Controller().Callbacks().RegisterCallback(controller.NewLoggingCallback(ct, func(msg string) {
						fmt.Fprintln(out, msg)
					}))
				}
			}

			if err := l.Start(ctx); err != nil {
				return err
			}
			select {
			case <-reached:
				a.logger.Info("goal is reached")
			case <-ctx.Done():
			}
			l.Stop()

			r, err := l.SaveReport(context.WithoutCancel(ctx))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "report %s\n%v\n", r.ID, r.Facts)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVarP(&duration, "for", "d", 0, "Stop after this duration (0 runs until the goal is reached)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print controller lifecycle events")
	return cmd
}
