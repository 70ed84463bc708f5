// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lit-pipeline/internal/provider"
	"github.com/pdiddy/lit-pipeline/internal/runner"
	"github.com/pdiddy/lit-pipeline/internal/secrets"
	"github.com/pdiddy/lit-pipeline/pkg/types"
)

const (
	defaultSearchTimeout = 60 * time.Second
	defaultUserAgent     = "lit-pipeline/0.1"
	summaryFile          = "search_summary.yaml"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Fetch raw records from the configured providers",
	Long: `Search runs every query against every provider concurrently, writing one
raw result file per provider to the output directory. A provider that
fails or times out is reported and skipped; the run only fails when no
provider produced anything.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("queries", "", "JSON file with an array of query strings (required)")
	searchCmd.Flags().String("output-dir", "raw_results", "directory for per-provider result files")
	searchCmd.Flags().StringSlice("providers", nil, "providers to query (default: all)")
	searchCmd.Flags().Int("limit", 0, "maximum results per query per provider (default 100)")
	searchCmd.Flags().Int("workers", 0, "concurrent provider fetches (default 4)")
	searchCmd.Flags().Duration("task-timeout", 0, "per-provider fetch timeout (default 5m)")
	searchCmd.MarkFlagRequired("queries")

	rootCmd.AddCommand(searchCmd)
}

// loadQueries reads a JSON array of query strings, skipping blanks.
func loadQueries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading queries file: %w", err)
	}
	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parsing queries file %s: expected a JSON array of strings: %w", path, err)
	}
	out := queries[:0]
	for _, q := range queries {
		if q != "" {
			out = append(out, q)
		}
	}
	return out, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	queriesPath, _ := cmd.Flags().GetString("queries")
	outDir, _ := cmd.Flags().GetString("output-dir")
	names, _ := cmd.Flags().GetStringSlice("providers")
	limit, _ := cmd.Flags().GetInt("limit")
	workers, _ := cmd.Flags().GetInt("workers")
	taskTimeout, _ := cmd.Flags().GetDuration("task-timeout")

	queries, err := loadQueries(queriesPath)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("queries file %s contains no queries", queriesPath)
	}

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultSearchTimeout,
			UserAgent: defaultUserAgent,
		},
		Limit:                 limit,
		Workers:               workers,
		TaskTimeout:           taskTimeout,
		SemanticScholarAPIKey: secrets.Get(loadedSecrets, secrets.SemanticScholarKey),
	}

	client := &http.Client{Timeout: cfg.Timeout}
	providers, err := provider.ForNames(names, client)
	if err != nil {
		return err
	}

	fmt.Printf("Running %d queries against %d providers...\n", len(queries), len(providers))

	tasks := runner.SearchTasks(providers, queries, outDir, cfg)
	summary := runner.Run(cmd.Context(), tasks, cfg.Workers, cfg.TaskTimeout, os.Stdout)

	if err := runner.WriteSummary(filepath.Join(outDir, summaryFile), queries, summary); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write run summary: %v\n", err)
	}

	if summary.AllFailed() {
		return fmt.Errorf("all %d provider fetches failed", summary.Failed)
	}
	return nil
}
