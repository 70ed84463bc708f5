// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements the source search clients. Each provider
// queries one source (academic API, scraped search engine, or forum
// GraphQL API) and returns raw records in that source's own field layout;
// downstream stages read them only through the pkg/types accessors.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// Provider searches a single source. Implementations must tag every record
// with a "source" field and must tolerate partial results: a provider that
// found anything returns what it found.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, queries []string, cfg types.SearchConfig) ([]types.Record, error)
}

// ForNames resolves provider names to instances sharing one HTTP client.
// An empty list selects every known provider.
func ForNames(names []string, client *http.Client) ([]Provider, error) {
	all := []Provider{
		&Arxiv{Client: client},
		&SemanticScholar{Client: client},
		&LessWrong{Client: client},
		&Scholar{Client: client},
	}
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]Provider, len(all))
	for _, p := range all {
		byName[p.Name()] = p
	}

	var selected []Provider
	for _, name := range names {
		p, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		selected = append(selected, p)
	}
	return selected, nil
}
