// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// statsFile is the summary written next to the artifacts.
const statsFile = "download_stats.json"

// FailedPaper identifies a record whose download failed, for operator
// inspection.
type FailedPaper struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Stats accumulates per-record outcomes for one downloader run. All
// mutating methods are safe for concurrent use; the final counts do not
// depend on completion order.
type Stats struct {
	mu sync.Mutex

	Total           int           `json:"total"`
	Downloaded      int           `json:"downloaded"`
	SkippedNoURL    int           `json:"skipped_no_url"`
	SkippedExists   int           `json:"skipped_exists"`
	Failed          int           `json:"failed"`
	DownloadedFiles []string      `json:"downloaded_files"`
	FailedPapers    []FailedPaper `json:"failed_papers"`
}

func (s *Stats) addDownloaded(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Downloaded++
	s.DownloadedFiles = append(s.DownloadedFiles, path)
}

func (s *Stats) addSkippedExists(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkippedExists++
	// An existing artifact still counts as available output.
	s.DownloadedFiles = append(s.DownloadedFiles, path)
}

func (s *Stats) addSkippedNoURL() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkippedNoURL++
}

func (s *Stats) addFailed(p FailedPaper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed++
	s.FailedPapers = append(s.FailedPapers, p)
}

// HasFailures reports whether any record failed.
func (s *Stats) HasFailures() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Failed > 0
}

// Write saves the stats as indented JSON into dir/download_stats.json.
func (s *Stats) Write(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DownloadedFiles == nil {
		s.DownloadedFiles = []string{}
	}
	if s.FailedPapers == nil {
		s.FailedPapers = []FailedPaper{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, statsFile), data, 0o644)
}

// Summarize prints the run summary in the form the operator sees.
func (s *Stats) Summarize(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(w, "\nDownload summary:\n")
	fmt.Fprintf(w, "  total:          %d\n", s.Total)
	fmt.Fprintf(w, "  downloaded:     %d\n", s.Downloaded)
	fmt.Fprintf(w, "  already existed: %d\n", s.SkippedExists)
	fmt.Fprintf(w, "  no document URL: %d\n", s.SkippedNoURL)
	fmt.Fprintf(w, "  failed:         %d\n", s.Failed)
}
