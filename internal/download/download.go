// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches documents for deduplicated records with bounded
// concurrency, retry with backoff, and idempotent resume: artifacts are
// named by a deterministic ID, so a re-run skips everything already on disk.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/pdiddy/lit-pipeline/internal/identity"
	"github.com/pdiddy/lit-pipeline/pkg/types"
)

const (
	defaultMaxConcurrent = 5
	defaultMaxRetries    = 5
	defaultTimeout       = 120 * time.Second
	defaultUserAgent     = "lit-pipeline/0.1"
)

// Scheduler downloads documents for a record list. The semaphore is the
// admission gate bounding in-flight fetches; the optional rate limiter
// additionally caps request rate for source-site politeness.
type Scheduler struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
	Limiter    *rate.Limiter
	Log        io.Writer

	sem *semaphore.Weighted

	// sleep performs backoff waits. Tests replace it so retry timing can
	// be observed without real sleeps.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewScheduler builds a Scheduler from config, applying defaults for
// unset fields.
func NewScheduler(cfg types.DownloadConfig, log io.Writer) *Scheduler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &Scheduler{
		// Redirect following is the client default.
		Client:     &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		MaxRetries: maxRetries,
		Limiter:    limiter,
		Log:        log,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// DownloadAll fetches every record's document into outDir and returns the
// aggregated stats. Records without a document URL and records whose
// artifact already exists are resolved without any network call. Per-record
// failures never abort the batch. The stats file is written by the caller
// so that it lands even after a partial run.
func (s *Scheduler) DownloadAll(ctx context.Context, records []types.Record, outDir string) (*Stats, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	stats := &Stats{Total: len(records)}

	fmt.Fprintf(s.Log, "Downloading documents for %d records...\n", len(records))

	var wg sync.WaitGroup
	for _, rec := range records {
		id := identity.ArtifactID(rec)
		url := rec.PDFURL()

		if url == "" {
			stats.addSkippedNoURL()
			continue
		}

		destPath := identity.ArtifactPath(outDir, rec)
		if _, err := os.Stat(destPath); err == nil {
			stats.addSkippedExists(destPath)
			continue
		}

		wg.Add(1)
		go func(rec types.Record, id, url, destPath string) {
			defer wg.Done()

			if err := s.sem.Acquire(ctx, 1); err != nil {
				stats.addFailed(FailedPaper{ID: id, Title: rec.Title(), URL: url})
				return
			}
			defer s.sem.Release(1)

			if err := s.fetch(ctx, url, destPath); err != nil {
				fmt.Fprintf(s.Log, "  failed: %s (%v)\n", id, err)
				stats.addFailed(FailedPaper{ID: id, Title: rec.Title(), URL: url})
				return
			}
			fmt.Fprintf(s.Log, "  downloaded: %s\n", id)
			stats.addDownloaded(destPath)
		}(rec, id, url, destPath)
	}
	wg.Wait()

	return stats, nil
}
