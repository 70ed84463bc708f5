// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner drives independent provider fetches concurrently and
// aggregates their outcomes. The run as a whole fails only when every
// task failed: partial results are still useful input for dedup.
package runner

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/lit-pipeline/internal/dedup"
	"github.com/pdiddy/lit-pipeline/internal/provider"
	"github.com/pdiddy/lit-pipeline/pkg/types"
)

const (
	defaultWorkers     = 4
	defaultTaskTimeout = 300 * time.Second
)

// Task is one independently invocable unit of work, typically a provider
// fetch. Run returns the number of records produced.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// TaskResult records one task's outcome.
type TaskResult struct {
	Name       string `yaml:"name"`
	OK         bool   `yaml:"ok"`
	Count      int    `yaml:"count"`
	Diagnostic string `yaml:"diagnostic,omitempty"`
}

// Summary aggregates a run's task results.
type Summary struct {
	Results   []TaskResult `yaml:"results"`
	Succeeded int          `yaml:"succeeded"`
	Failed    int          `yaml:"failed"`
}

// AllFailed reports whether no task succeeded. This is the only condition
// under which the search stage exits non-zero.
func (s Summary) AllFailed() bool {
	return s.Succeeded == 0 && s.Failed > 0
}

// Run executes the tasks with a bounded worker pool, applying perTimeout
// to each task. A task that exceeds its timeout is recorded as failed with
// a synthetic diagnostic; it never crashes the run. Progress is printed to
// w as tasks complete, in completion order.
func Run(ctx context.Context, tasks []Task, workers int, perTimeout time.Duration, w io.Writer) Summary {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if perTimeout <= 0 {
		perTimeout = defaultTaskTimeout
	}

	sem := semaphore.NewWeighted(int64(workers))
	results := make(chan TaskResult, len(tasks))

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results <- TaskResult{Name: task.Name, Diagnostic: err.Error()}
				return
			}
			defer sem.Release(1)

			taskCtx, cancel := context.WithTimeout(ctx, perTimeout)
			defer cancel()

			count, err := task.Run(taskCtx)
			if err != nil {
				diag := err.Error()
				if taskCtx.Err() == context.DeadlineExceeded {
					diag = fmt.Sprintf("timeout after %s", perTimeout)
				}
				results <- TaskResult{Name: task.Name, Count: count, Diagnostic: diag}
				return
			}
			results <- TaskResult{Name: task.Name, OK: true, Count: count}
		}(task)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var summary Summary
	for r := range results {
		if r.OK {
			summary.Succeeded++
			fmt.Fprintf(w, "  ok: %s (%d records)\n", r.Name, r.Count)
		} else {
			summary.Failed++
			fmt.Fprintf(w, "  failed: %s (%s)\n", r.Name, r.Diagnostic)
		}
		summary.Results = append(summary.Results, r)
	}

	fmt.Fprintf(w, "\nCompleted: %d/%d fetches succeeded\n", summary.Succeeded, len(tasks))
	return summary
}

// SearchTasks wraps each provider in a Task that fetches the queries and
// writes the raw records to <outDir>/<provider>.json. Records a provider
// returned before failing are still written, so a partial fetch is not
// thrown away.
func SearchTasks(providers []provider.Provider, queries []string, outDir string, cfg types.SearchConfig) []Task {
	tasks := make([]Task, 0, len(providers))
	for _, p := range providers {
		tasks = append(tasks, Task{
			Name: p.Name(),
			Run: func(ctx context.Context) (int, error) {
				records, err := p.Fetch(ctx, queries, cfg)
				if len(records) > 0 {
					path := filepath.Join(outDir, p.Name()+".json")
					if writeErr := dedup.WriteRecords(path, records); writeErr != nil && err == nil {
						err = writeErr
					}
				}
				return len(records), err
			},
		})
	}
	return tasks
}
