// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lit-pipeline/internal/catalog"
	"github.com/pdiddy/lit-pipeline/internal/dedup"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Index deduplicated records and artifacts into a SQLite catalog",
	Long: `Catalog upserts every deduplicated record into the catalog database,
joining each against its downloaded artifact when the file exists.
Re-running catalog over the same input is idempotent.`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().String("input", "", "deduplicated records file (required)")
	catalogCmd.Flags().String("artifacts-dir", "papers", "directory of downloaded artifacts")
	catalogCmd.Flags().String("db", "catalog.db", "SQLite catalog database file")
	catalogCmd.Flags().String("export", "", "also write a Markdown listing to this file")
	catalogCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	artifactsDir, _ := cmd.Flags().GetString("artifacts-dir")
	dbPath, _ := cmd.Flags().GetString("db")
	exportPath, _ := cmd.Flags().GetString("export")

	records, err := dedup.LoadFile(input)
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	summary, err := store.Ingest(ctx, records, artifactsDir)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d works (%d with local artifacts) into %s\n",
		summary.Indexed, summary.WithArtifacts, dbPath)

	counts, err := store.CountBySource(ctx)
	if err != nil {
		return err
	}
	sources := make([]string, 0, len(counts))
	for s := range counts {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Printf("  %s: %d\n", s, counts[s])
	}

	if exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		if err := store.ExportMarkdown(ctx, f); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", exportPath)
	}
	return nil
}
