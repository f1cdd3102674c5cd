package main

import (
	"context"
	"fmt"

	"github.com/harunnryd/pgpt/internal/model"

	"github.com/spf13/cobra"
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Inspect configured providers",
}

var providerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry entries and the dialect each one speaks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRegistry(cmd, func(_ context.Context, registry *model.Registry) error {
			fmt.Fprintln(cmd.OutOrStdout(), newTableFormatter().formatEntries(registry.Entries()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(providerCmd)
	providerCmd.AddCommand(providerListCmd)
}
