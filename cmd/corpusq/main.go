// Command corpusq searches POS-tagged novel texts and JSON documents from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdash/internal/config"
	logpkg "github.com/kailas-cloud/corpusdash/internal/logger"
	"github.com/kailas-cloud/corpusdash/internal/version"
	corpusdash "github.com/kailas-cloud/corpusdash/pkg/sdk"
)

var (
	// Global flags
	verbose    bool
	configPath string
	redisAddr  string
	timeout    time.Duration
	output     string

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "corpusq",
	Short: "Boolean search over POS-tagged Chinese novels",
	Long: `corpusq fetches part-of-speech-tagged novel texts, splits them into
sentences and prints the sentences whose words satisfy a boolean query.

Queries combine terms with AND, OR, NOT and parentheses. Adjacent terms
are joined with AND. Matching ignores case and POS tags ("祥子/nr" is "祥子").`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logpkg.NewCLILogger(verbose)
		switch output {
		case outputTable, outputJSON, outputCSV:
			return nil
		default:
			return fmt.Errorf("unknown output format %q (want table, json or csv)", output)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file with sources and fetch settings")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Cache fetched texts in Redis at this address")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or csv")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(jsonCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newClient builds an SDK client from the global flags.
func newClient(ctx context.Context) (*corpusdash.Client, error) {
	opts, err := clientOptions()
	if err != nil {
		return nil, err
	}
	client, err := corpusdash.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func clientOptions() ([]corpusdash.Option, error) {
	var opts []corpusdash.Option

	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		opts = append(opts, configOptions(&cfg)...)
	}
	if redisAddr != "" {
		opts = append(opts, corpusdash.WithRedis(redisAddr, os.Getenv("REDIS_PASSWORD")))
	}
	if verbose {
		opts = append(opts, corpusdash.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}
	return opts, nil
}

// configOptions maps a service config file onto SDK options.
func configOptions(cfg *config.Config) []corpusdash.Option {
	sources := make([]corpusdash.Source, len(cfg.Corpus.Sources))
	for i, s := range cfg.Corpus.Sources {
		sources[i] = corpusdash.Source{Name: s.Name, URL: s.URL}
	}
	opts := []corpusdash.Option{
		corpusdash.WithSources(sources...),
		corpusdash.WithFetchTimeout(time.Duration(cfg.Fetch.TimeoutSec) * time.Second),
		corpusdash.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
		corpusdash.WithUserAgent(cfg.Fetch.UserAgent),
		corpusdash.WithFallbackCharset(cfg.Fetch.FallbackCharset),
		corpusdash.WithConcurrency(cfg.Fetch.Concurrency),
		corpusdash.WithDefaultMode(corpusdash.Mode(cfg.Corpus.DefaultMode)),
		corpusdash.WithMaxMatches(cfg.JSONSearch.MaxMatches),
		corpusdash.WithJSONTimeout(time.Duration(cfg.JSONSearch.TimeoutSec) * time.Second),
		corpusdash.WithJSONMaxBodyBytes(cfg.JSONSearch.MaxBodyBytes),
		corpusdash.WithCacheTTL(time.Duration(cfg.Cache.TTLSec) * time.Second),
	}
	switch cfg.Cache.Driver {
	case config.DriverRedis:
		opts = append(opts, corpusdash.WithRedis(cfg.Cache.Addrs[0], cfg.Cache.Password))
	default:
		opts = append(opts, corpusdash.WithMemoryCache(cfg.Cache.MaxEntries))
		opts = append(opts, corpusdash.WithCacheMaxBytes(cfg.Cache.MaxBytes))
	}
	return opts
}
