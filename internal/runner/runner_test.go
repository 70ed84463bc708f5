// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lit-pipeline/internal/dedup"
	"github.com/pdiddy/lit-pipeline/internal/provider"
	"github.com/pdiddy/lit-pipeline/pkg/types"
)

func okTask(name string, count int) Task {
	return Task{Name: name, Run: func(context.Context) (int, error) { return count, nil }}
}

func failTask(name string) Task {
	return Task{Name: name, Run: func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}}
}

func TestRunAllSucceed(t *testing.T) {
	var buf bytes.Buffer
	s := Run(context.Background(), []Task{okTask("a", 3), okTask("b", 5)}, 4, time.Second, &buf)

	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 0, s.Failed)
	assert.False(t, s.AllFailed())
}

func TestRunPartialFailureIsOverallSuccess(t *testing.T) {
	var buf bytes.Buffer
	s := Run(context.Background(), []Task{okTask("a", 1), failTask("b"), failTask("c")}, 4, time.Second, &buf)

	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 2, s.Failed)
	assert.False(t, s.AllFailed(), "partial success must count as overall success")
	assert.Contains(t, buf.String(), "failed: b")
}

func TestRunAllFailed(t *testing.T) {
	var buf bytes.Buffer
	s := Run(context.Background(), []Task{failTask("a"), failTask("b")}, 4, time.Second, &buf)

	assert.True(t, s.AllFailed())
}

func TestRunTimeoutIsSyntheticFailure(t *testing.T) {
	slow := Task{Name: "slow", Run: func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}}

	var buf bytes.Buffer
	s := Run(context.Background(), []Task{slow, okTask("fast", 2)}, 4, 20*time.Millisecond, &buf)

	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	var slowResult TaskResult
	for _, r := range s.Results {
		if r.Name == "slow" {
			slowResult = r
		}
	}
	assert.False(t, slowResult.OK)
	assert.Contains(t, slowResult.Diagnostic, "timeout after")
}

func TestRunBoundsWorkers(t *testing.T) {
	var inFlight, maxSeen int32
	task := func(name string) Task {
		return Task{Name: name, Run: func(context.Context) (int, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return 1, nil
		}}
	}

	var buf bytes.Buffer
	tasks := []Task{task("a"), task("b"), task("c"), task("d"), task("e"), task("f")}
	s := Run(context.Background(), tasks, 2, time.Second, &buf)

	require.Equal(t, 6, s.Succeeded)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
}

// fakeProvider returns canned records, or an error after partial results.
type fakeProvider struct {
	name    string
	records []types.Record
	err     error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(context.Context, []string, types.SearchConfig) ([]types.Record, error) {
	return f.records, f.err
}

func TestSearchTasksWriteResults(t *testing.T) {
	dir := t.TempDir()
	good := &fakeProvider{name: "fake", records: []types.Record{{"title": "A"}, {"title": "B"}}}
	partial := &fakeProvider{name: "flaky", records: []types.Record{{"title": "C"}}, err: errors.New("cut off mid-fetch")}
	empty := &fakeProvider{name: "empty", err: errors.New("nothing")}

	tasks := SearchTasks([]provider.Provider{good, partial, empty}, []string{"q"}, dir, types.SearchConfig{})
	var buf bytes.Buffer
	s := Run(context.Background(), tasks, 2, time.Second, &buf)

	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 2, s.Failed)
	assert.False(t, s.AllFailed())

	records, err := dedup.LoadFile(filepath.Join(dir, "fake.json"))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// Partial results are written even when the provider errored.
	records, err = dedup.LoadFile(filepath.Join(dir, "flaky.json"))
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = os.Stat(filepath.Join(dir, "empty.json"))
	assert.True(t, os.IsNotExist(err), "provider with no records should write no file")
}

func TestWriteAndReadSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "run_summary.yaml")
	s := Summary{
		Results: []TaskResult{
			{Name: "arxiv", OK: true, Count: 40},
			{Name: "google_scholar", Diagnostic: "timeout after 5m0s"},
		},
		Succeeded: 1,
		Failed:    1,
	}

	require.NoError(t, WriteSummary(path, []string{"alignment", "interpretability"}, s))

	rf, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alignment", "interpretability"}, rf.Queries)
	assert.Equal(t, 1, rf.Succeeded)
	require.Len(t, rf.Results, 2)
	assert.True(t, rf.Results[0].OK)
	assert.True(t, strings.Contains(rf.Results[1].Diagnostic, "timeout"))
	assert.False(t, rf.Timestamp.IsZero())
}
