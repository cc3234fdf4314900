// Command worldloop prints the planning domain and problems of the
// interaction world, searches plans and runs the sense-plan-act loop.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/worldloop/config"
	"github.com/hupe1980/worldloop/logging"
)

// app holds what the persistent flags resolve to.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger logging.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "worldloop",
		Short: "Symbolic world model and planning loop for social interaction",
		Long: `worldloop keeps a symbolic model of the world around a social robot,
plans toward interaction goals with a PDDL planner and executes the plan.

The world state is read from a YAML file listing object declarations and
facts:

  objects:
    - human_1 - human
  facts:
    - (can_be_engaged human_1)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := cfg.Logging.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if z, ok := a.logger.(*logging.ZapAdapter); ok {
				_ = z.Sync()
			}
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "worldloop.yaml", "Path to the configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newDomainCmd(a),
		newProblemCmd(a),
		newPlanCmd(a),
		newRunCmd(a),
		newReportsCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
