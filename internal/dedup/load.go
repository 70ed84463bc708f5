// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// LoadDirs loads raw result files from each directory, concatenated in
// argument order. A missing directory is an error; within a directory,
// files that cannot be read or do not hold a JSON array are skipped with a
// warning on w.
func LoadDirs(dirs []string, w io.Writer) ([]types.Record, error) {
	var all []types.Record
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("input directory does not exist: %s", dir)
		}
		fmt.Fprintf(w, "From %s:\n", dir)
		records, err := LoadDir(dir, w)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// LoadDir loads every *.json file in dir, in filename order, and
// concatenates their record arrays.
func LoadDir(dir string, w io.Writer) ([]types.Record, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(paths)

	var all []types.Record
	for _, path := range paths {
		fmt.Fprintf(w, "  loading: %s\n", filepath.Base(path))
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "    error loading: %v\n", err)
			continue
		}
		var records []types.Record
		if err := json.Unmarshal(data, &records); err != nil {
			fmt.Fprintf(w, "    skipped (not a record array): %v\n", err)
			continue
		}
		fmt.Fprintf(w, "    found %d records\n", len(records))
		all = append(all, records...)
	}
	return all, nil
}

// LoadFile reads a single JSON array of records, e.g. the deduplicated
// checkpoint consumed by the download stage.
func LoadFile(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []types.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: input must be a JSON array of records: %w", path, err)
	}
	return records, nil
}

// WriteRecords writes records as an indented JSON array to path, creating
// parent directories as needed.
func WriteRecords(path string, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
