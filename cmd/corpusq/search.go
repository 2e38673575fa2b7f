package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	corpusdash "github.com/kailas-cloud/corpusdash/pkg/sdk"
)

var (
	searchMode    string
	searchSources []string
	searchLimit   int
)

// searchCmd runs a corpus search
var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Find sentences matching a boolean query",
	Long: `Evaluates QUERY against every sentence of the configured novels.

Examples:
  corpusq search "祥子 AND 车"
  corpusq search "祥子 AND (车 OR 钱)" --source "老舍《骆驼祥子》" --limit 20
  corpusq search "NOT 祥子" --mode legacy -o csv > rows.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "Evaluation mode: boolean or legacy (default from config)")
	searchCmd.Flags().StringArrayVarP(&searchSources, "source", "s", nil, "Restrict to a source by name (repeatable)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Print at most this many rows (0 = all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	report, err := client.Search(args[0]).
		Mode(corpusdash.Mode(searchMode)).
		Sources(searchSources...).
		Limit(searchLimit).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	for _, f := range report.Failures {
		logger.Warn("Source unavailable", zap.String("source", f.Source), zap.String("reason", f.Reason))
	}
	for _, w := range report.Warnings {
		logger.Warn(w)
	}

	return renderReport(cmd.OutOrStdout(), report, output)
}
