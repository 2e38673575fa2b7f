package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	corpusdash "github.com/kailas-cloud/corpusdash/pkg/sdk"
)

var jsonPath string

// jsonCmd searches a remote JSON document
var jsonCmd = &cobra.Command{
	Use:   "json URL [QUERY]",
	Short: "Search a remote JSON document for a substring",
	Long: `Fetches the JSON document at URL and lists the keys and values that
contain QUERY, ignoring case. Without QUERY the document is pretty-printed.

Examples:
  corpusq json https://api.example.com/users.json alice
  corpusq json https://api.example.com/users.json alice --path "users.*.name"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runJSON,
}

func init() {
	jsonCmd.Flags().StringVar(&jsonPath, "path", "", "Keep only matches whose path matches this glob")
}

func runJSON(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	var q string
	if len(args) == 2 {
		q = args[1]
	}
	var opts []corpusdash.JSONOption
	if jsonPath != "" {
		opts = append(opts, corpusdash.WithPath(jsonPath))
	}

	res, err := client.SearchJSON(ctx, args[0], q, opts...)
	if err != nil {
		return fmt.Errorf("json search: %w", err)
	}
	return renderJSONResult(cmd.OutOrStdout(), res, q, output)
}
