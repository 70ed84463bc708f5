// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// RunFile is the on-disk record of one search run: which queries were
// asked, how each provider fared, and when. It sits next to the raw
// result files so a later dedup pass can see where its input came from.
type RunFile struct {
	Queries   []string     `yaml:"queries"`
	Results   []TaskResult `yaml:"results"`
	Succeeded int          `yaml:"succeeded"`
	Failed    int          `yaml:"failed"`
	Timestamp time.Time    `yaml:"timestamp"`
}

// WriteSummary saves the run outcome as YAML to path.
func WriteSummary(path string, queries []string, s Summary) error {
	rf := RunFile{
		Queries:   queries,
		Results:   s.Results,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Timestamp: time.Now(),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating summary directory: %w", err)
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSummary loads a previously written run summary.
func ReadSummary(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run summary: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run summary: %w", err)
	}
	return &rf, nil
}
