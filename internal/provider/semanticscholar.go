// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/lit-pipeline/internal/httputil"
	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "paperId,externalIds,title,abstract,authors,year,citationCount,openAccessPdf,url"

// SemanticScholar queries the Semantic Scholar Graph API.
type SemanticScholar struct {
	Client *http.Client
	APIKey string
}

// Name returns the provider identifier.
func (p *SemanticScholar) Name() string { return "semantic_scholar" }

// apiKey prefers the key set on the provider, falling back to config.
func (p *SemanticScholar) apiKey(cfg types.SearchConfig) string {
	if p.APIKey != "" {
		return p.APIKey
	}
	return cfg.SemanticScholarAPIKey
}

// Fetch runs each query against the Graph API, following pagination up to
// the per-query limit.
func (p *SemanticScholar) Fetch(ctx context.Context, queries []string, cfg types.SearchConfig) ([]types.Record, error) {
	var all []types.Record
	for _, q := range queries {
		records, err := p.search(ctx, q, cfg)
		if err != nil {
			return all, fmt.Errorf("semantic scholar query %q: %w", q, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

func (p *SemanticScholar) search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.Record, error) {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 100
	}

	var results []types.Record
	offset := 0
	for len(results) < limit {
		batch := limit - len(results)
		if batch > 100 {
			batch = 100
		}

		params := url.Values{
			"query":  {query},
			"fields": {semanticFields},
			"offset": {fmt.Sprintf("%d", offset)},
			"limit":  {fmt.Sprintf("%d", batch)},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return results, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)
		if key := p.apiKey(cfg); key != "" {
			req.Header.Set("x-api-key", key)
		}

		resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
		if err != nil {
			return results, fmt.Errorf("Semantic Scholar API request: %w", err)
		}

		var sr struct {
			Data []types.Record `json:"data"`
			Next int            `json:"next"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&sr)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return results, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
		}
		if decodeErr != nil {
			return results, fmt.Errorf("parsing Semantic Scholar response: %w", decodeErr)
		}

		for _, rec := range sr.Data {
			rec["source"] = "semantic_scholar"
			rec["search_query"] = query
			// Promote the nested identifiers the way downstream stages
			// expect to find them.
			if ext, ok := rec["externalIds"].(map[string]any); ok {
				if doi, ok := ext["DOI"].(string); ok && doi != "" {
					rec["doi"] = doi
				}
				if arxivID, ok := ext["ArXiv"].(string); ok && arxivID != "" {
					rec["arxiv_id"] = arxivID
				}
			}
			results = append(results, rec)
		}

		if sr.Next == 0 {
			break
		}
		offset = sr.Next
	}
	return results, nil
}
