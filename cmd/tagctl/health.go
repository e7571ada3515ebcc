package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := "ok"
			if err := a.client.Health(cmd.Context()); err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			if a.structured() {
				return a.printOutput(map[string]string{"server": a.client.BaseURL(), "status": status})
			}
			printTable(a.out, []string{"Server", "Status"}, [][]string{{a.client.BaseURL(), status}})
			return nil
		},
	}
}
