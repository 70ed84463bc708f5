// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Arxiv queries the arXiv Atom feed API.
type Arxiv struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *Arxiv) Name() string { return "arxiv" }

// Fetch runs each query against the arXiv API and concatenates the results.
func (p *Arxiv) Fetch(ctx context.Context, queries []string, cfg types.SearchConfig) ([]types.Record, error) {
	var all []types.Record
	for _, q := range queries {
		records, err := p.search(ctx, q, cfg)
		if err != nil {
			// Return what earlier queries found alongside the error.
			return all, fmt.Errorf("arxiv query %q: %w", q, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

func (p *Arxiv) search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.Record, error) {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 100
	}

	terms := strings.Join(strings.Fields(query), "+")
	reqURL := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, url.QueryEscape(terms), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var records []types.Record
	for _, entry := range feed.Entries {
		id := extractArxivID(entry.ID)
		if id == "" {
			continue
		}

		var authors []any
		for _, a := range entry.Authors {
			authors = append(authors, strings.TrimSpace(a.Name))
		}

		rec := types.Record{
			"source":       "arxiv",
			"search_query": query,
			// Kept as the full entry URL; artifact naming strips it.
			"arxiv_id":  entry.ID,
			"title":     strings.TrimSpace(entry.Title),
			"abstract":  strings.TrimSpace(entry.Summary),
			"authors":   authors,
			"published": entry.Published,
			"pdf_url":   "https://arxiv.org/pdf/" + id,
		}
		if entry.DOI != "" {
			rec["doi"] = entry.DOI
		}
		records = append(records, rec)
	}
	return records, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	DOI       string        `xml:"doi"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the bare ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041v1").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return idURL[idx+len(prefix):]
}
