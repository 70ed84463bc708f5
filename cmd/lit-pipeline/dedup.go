// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lit-pipeline/internal/dedup"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Merge raw result files into one deduplicated record set",
	Long: `Dedup loads every raw result file from the input directories, drops
records whose DOI was already seen, then drops records whose title
fuzzily matches an already retained title. The first occurrence of each
work is kept; input order is preserved.`,
	RunE: runDedup,
}

func init() {
	dedupCmd.Flags().StringSlice("input-dir", nil, "directory of raw result files (repeatable, required)")
	dedupCmd.Flags().String("output", "deduplicated.json", "output file for merged records")
	dedupCmd.Flags().Float64("threshold", dedup.DefaultThreshold, "fuzzy title-match threshold in (0,1]")
	dedupCmd.MarkFlagRequired("input-dir")

	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	inputDirs, _ := cmd.Flags().GetStringSlice("input-dir")
	output, _ := cmd.Flags().GetString("output")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	records, err := dedup.LoadDirs(inputDirs, os.Stderr)
	if err != nil {
		return err
	}

	kept, removed := dedup.Deduplicate(records, threshold)
	if err := dedup.WriteRecords(output, kept); err != nil {
		return fmt.Errorf("writing deduplicated records: %w", err)
	}

	fmt.Printf("Loaded %d records, removed %d duplicates, kept %d\n",
		len(records), removed, len(kept))
	fmt.Printf("Wrote %s\n", output)
	return nil
}
