// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lit-pipeline/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Limit is the maximum number of results per query per provider (default 100).
	Limit int `json:"limit" yaml:"limit"`

	// Workers bounds how many provider fetches run at once (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// TaskTimeout bounds each provider fetch (default 300s). An elapsed
	// timeout is recorded as that provider's failure, not a crash.
	TaskTimeout time.Duration `json:"task_timeout" yaml:"task_timeout"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
}

// DedupConfig holds settings for the dedup stage.
type DedupConfig struct {
	// Threshold is the fuzzy title-match threshold in [0,1] (default 0.85).
	// Two titles with similarity at or above the threshold are duplicates.
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// DownloadConfig holds settings for the download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxConcurrent bounds the number of in-flight downloads (default 5).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// MaxRetries is the total attempt budget per document (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RatePerSecond caps outbound request rate across all workers.
	// Zero disables rate limiting.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`
}

// CatalogConfig holds settings for the catalog stage.
type CatalogConfig struct {
	// DBPath is the SQLite catalog database file (default "catalog.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Dedup    DedupConfig    `json:"dedup" yaml:"dedup"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog"`
}
