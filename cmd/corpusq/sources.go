package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// sourcesCmd lists the configured sources
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and their sentence counts",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func runSources(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	infos, err := client.Sources(ctx)
	if err != nil {
		return fmt.Errorf("sources: %w", err)
	}
	return renderSources(cmd.OutOrStdout(), infos, output)
}
