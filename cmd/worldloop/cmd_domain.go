package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/worldloop/domain"
)

func newDomainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "domain",
		Short: "Print the PDDL domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), domain.Default().String())
			return err
		},
	}
}
