// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AttemptState tracks one record's fetch through its retry sequence.
// Attempts are strictly sequential; only a RetryScheduled transition leads
// back to Attempting.
type AttemptState int

const (
	StatePending AttemptState = iota
	StateAttempting
	StateSucceeded
	StateRetryScheduled
	StatePermanentlyFailed
)

func (s AttemptState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateRetryScheduled:
		return "retry_scheduled"
	case StatePermanentlyFailed:
		return "permanently_failed"
	default:
		return "unknown"
	}
}

// permanentStatuses are HTTP statuses known not to improve on retry.
var permanentStatuses = map[int]bool{
	http.StatusForbidden:                  true,
	http.StatusNotFound:                   true,
	http.StatusUnavailableForLegalReasons: true,
}

// classify maps one attempt's response to the next state. An HTML body
// where the URL does not name a PDF is a landing page or paywall, which a
// retry cannot fix either.
func classify(status int, contentType, url string) AttemptState {
	if permanentStatuses[status] {
		return StatePermanentlyFailed
	}
	if status >= 400 {
		return StateRetryScheduled
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") && !strings.Contains(ct, "pdf") && !strings.HasSuffix(url, ".pdf") {
		return StatePermanentlyFailed
	}
	return StateSucceeded
}

// backoffDelay returns the wait before the next attempt: 2^attempt seconds
// for attempt 0, 1, 2, ...
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// fetch downloads url to destPath, retrying transient failures with
// exponential backoff up to the attempt budget. The file appears at
// destPath only after the full body has been written, via a temp file and
// rename, so a crash mid-transfer never leaves a partial artifact behind.
func (s *Scheduler) fetch(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, backoffDelay(attempt-1)); err != nil {
				return err
			}
		}
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		state, err := s.attempt(ctx, url, destPath)
		switch state {
		case StateSucceeded:
			return nil
		case StatePermanentlyFailed:
			return err
		default:
			lastErr = err
		}
	}

	return fmt.Errorf("exhausted %d attempts: %w", s.MaxRetries, lastErr)
}

// attempt performs a single GET and returns the resulting state. Redirects
// are followed by the client; the client timeout bounds the whole attempt.
func (s *Scheduler) attempt(ctx context.Context, url, destPath string) (AttemptState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatePermanentlyFailed, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := s.Client.Do(req)
	if err != nil {
		// Timeouts and connection resets are transient.
		return StateRetryScheduled, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	state := classify(resp.StatusCode, resp.Header.Get("Content-Type"), url)
	switch state {
	case StatePermanentlyFailed:
		if permanentStatuses[resp.StatusCode] {
			return state, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
		}
		return state, fmt.Errorf("got HTML instead of a document from %s (paywall or landing page)", url)
	case StateRetryScheduled:
		return state, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	if err := writeAtomic(destPath, resp.Body); err != nil {
		return StateRetryScheduled, err
	}
	return StateSucceeded, nil
}

// writeAtomic streams body to a temp file in the destination directory and
// renames it into place on success.
func writeAtomic(destPath string, body io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
