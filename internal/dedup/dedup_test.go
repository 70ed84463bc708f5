// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pdiddy/lit-pipeline/pkg/types"
)

func titles(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title()
	}
	return out
}

func TestDeduplicateByDOI(t *testing.T) {
	// Identical DOI merges even when the titles share nothing.
	records := []types.Record{
		{"doi": "10.1145/123", "title": "Paper A"},
		{"doi": "10.1145/123", "title": "Completely Unrelated Words Here"},
		{"doi": "10.1145/456", "title": "Paper B"},
	}
	deduped, removed := Deduplicate(records, 0.85)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	want := []string{"Paper A", "Paper B"}
	if !reflect.DeepEqual(titles(deduped), want) {
		t.Errorf("titles = %v, want %v", titles(deduped), want)
	}
}

func TestDeduplicateDOICaseInsensitive(t *testing.T) {
	records := []types.Record{
		{"doi": "10.1145/ABC"},
		{"doi": "10.1145/abc"},
	}
	deduped, _ := Deduplicate(records, 0.85)
	if len(deduped) != 1 {
		t.Errorf("len = %d, want 1", len(deduped))
	}
}

func TestDeduplicateByFuzzyTitle(t *testing.T) {
	// The worked example: record 2 has no DOI but its title fuzzy-matches
	// record 1; record 3 is distinct.
	records := []types.Record{
		{"doi": "10.1/a", "title": "Foo Bar"},
		{"title": "foo   bar!!"},
		{"doi": "10.1/b", "title": "Something else"},
	}
	deduped, removed := Deduplicate(records, 0.85)
	if len(deduped) != 2 {
		t.Fatalf("len = %d, want 2", len(deduped))
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if deduped[0].Title() != "Foo Bar" {
		t.Errorf("kept %q, want first-seen record", deduped[0].Title())
	}
}

func TestDeduplicateTokenOrderInsensitive(t *testing.T) {
	records := []types.Record{
		{"title": "large language models for science"},
		{"title": "Science, For Large Language Models"},
	}
	deduped, _ := Deduplicate(records, 0.95)
	if len(deduped) != 1 {
		t.Errorf("len = %d, want 1: reordered tokens should match", len(deduped))
	}
}

func TestDeduplicateThresholdBoundary(t *testing.T) {
	// "abcd" vs "abcx": token-sorted strings differ by one edit out of
	// four characters, so similarity is exactly 0.75. The comparison is
	// inclusive: similarity == threshold counts as a duplicate.
	a := types.Record{"title": "abcd"}
	b := types.Record{"title": "abcx"}

	if got := Similarity("abcd", "abcx"); got != 0.75 {
		t.Fatalf("Similarity = %v, want 0.75", got)
	}

	atThreshold, _ := Deduplicate([]types.Record{a, b}, 0.75)
	if len(atThreshold) != 1 {
		t.Errorf("at threshold: len = %d, want 1 (>= is a duplicate)", len(atThreshold))
	}

	aboveThreshold, _ := Deduplicate([]types.Record{a, b}, 0.76)
	if len(aboveThreshold) != 2 {
		t.Errorf("below threshold: len = %d, want 2", len(aboveThreshold))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	records := []types.Record{
		{"doi": "10.1/a", "title": "Foo Bar"},
		{"title": "foo bar"},
		{"title": "A Different Paper"},
		{"doi": "10.1/a", "title": "Foo Bar again"},
	}
	once, _ := Deduplicate(records, 0.85)
	twice, removed := Deduplicate(once, 0.85)
	if removed != 0 {
		t.Errorf("second pass removed %d, want 0", removed)
	}
	if !reflect.DeepEqual(titles(once), titles(twice)) {
		t.Errorf("second pass changed output: %v vs %v", titles(once), titles(twice))
	}
}

func TestDeduplicateOrderPreserving(t *testing.T) {
	records := []types.Record{
		{"title": "Paper C"},
		{"title": "Paper A"},
		{"title": "Paper C duplicate of nothing but close: Paper C"},
		{"title": "Paper B"},
	}
	deduped, _ := Deduplicate(records, 0.99)
	got := titles(deduped)
	// Non-duplicates keep their relative first-occurrence order.
	want := []string{"Paper C", "Paper A", "Paper C duplicate of nothing but close: Paper C", "Paper B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestDeduplicateEmptyRecordsRetained(t *testing.T) {
	// Records with neither DOI nor title are always retained and do not
	// anchor future comparisons.
	records := []types.Record{
		{},
		{},
		{"title": "Real Paper"},
	}
	deduped, removed := Deduplicate(records, 0.85)
	if len(deduped) != 3 || removed != 0 {
		t.Errorf("len = %d removed = %d, want 3 and 0", len(deduped), removed)
	}
}

func TestDeduplicateNewDOIStillTitleChecked(t *testing.T) {
	// A fresh DOI does not protect a record whose title matches an
	// earlier DOI-less record.
	records := []types.Record{
		{"title": "Emergent Abilities of Large Models"},
		{"doi": "10.1/x", "title": "emergent abilities of large models"},
	}
	deduped, _ := Deduplicate(records, 0.85)
	if len(deduped) != 1 {
		t.Errorf("len = %d, want 1", len(deduped))
	}
}

func TestLoadDirsAndWrite(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	writeJSON := func(path string, v any) {
		t.Helper()
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	writeJSON(filepath.Join(dirA, "arxiv.json"), []types.Record{{"title": "A"}, {"title": "B"}})
	writeJSON(filepath.Join(dirA, "notalist.json"), map[string]any{"oops": true})
	writeJSON(filepath.Join(dirB, "scholar.json"), []types.Record{{"title": "C"}})

	var buf bytes.Buffer
	records, err := LoadDirs([]string{dirA, dirB}, &buf)
	if err != nil {
		t.Fatalf("LoadDirs: %v", err)
	}
	if got := titles(records); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("titles = %v, want concatenation in argument order", got)
	}

	out := filepath.Join(t.TempDir(), "nested", "deduplicated.json")
	if err := WriteRecords(out, records); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	reloaded, err := LoadFile(out)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(reloaded) != 3 {
		t.Errorf("reloaded %d records, want 3", len(reloaded))
	}
}

func TestLoadDirsMissingDirectory(t *testing.T) {
	var buf bytes.Buffer
	if _, err := LoadDirs([]string{"/nonexistent/raw_results"}, &buf); err == nil {
		t.Error("want error for missing input directory")
	}
}

func TestLoadFileRejectsNonArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"not": "an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("want error for non-array input")
	}
}
