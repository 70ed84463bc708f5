// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lit-pipeline/internal/dedup"
	"github.com/pdiddy/lit-pipeline/internal/download"
	"github.com/pdiddy/lit-pipeline/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download PDF artifacts for deduplicated records",
	Long: `Download fetches the PDF for every record that carries a URL, with
bounded concurrency and per-document retries. Records without a URL and
records whose artifact already exists are skipped. A stats file is
written to the output directory regardless of failures; individual
failures never abort the batch.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("input", "", "deduplicated records file (required)")
	downloadCmd.Flags().String("output-dir", "papers", "directory for downloaded artifacts")
	downloadCmd.Flags().Int("max-concurrent", 0, "in-flight download bound (default 5)")
	downloadCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 120s)")
	downloadCmd.Flags().Float64("rate", 0, "max requests per second, 0 disables rate limiting")
	downloadCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	outDir, _ := cmd.Flags().GetString("output-dir")
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	rate, _ := cmd.Flags().GetFloat64("rate")

	records, err := dedup.LoadFile(input)
	if err != nil {
		return err
	}

	cfg := types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxConcurrent: maxConcurrent,
		RatePerSecond: rate,
	}

	fmt.Printf("Downloading %d records to %s...\n", len(records), outDir)
	start := time.Now()

	scheduler := download.NewScheduler(cfg, os.Stdout)
	stats, err := scheduler.DownloadAll(cmd.Context(), records, outDir)
	if err != nil {
		return err
	}

	if err := stats.Write(outDir); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write stats file: %v\n", err)
	}

	stats.Summarize(os.Stdout)
	fmt.Printf("Elapsed: %s\n", time.Since(start).Round(time.Second))
	return nil
}
