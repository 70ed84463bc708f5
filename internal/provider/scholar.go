// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// scholarBase is the Google Scholar results page. Declared as a var so
// tests can substitute an httptest server. Scholar has no official API;
// this scrapes the result HTML and is expected to be fragile.
var scholarBase = "https://scholar.google.com/scholar"

var citedByPattern = regexp.MustCompile(`Cited by (\d+)`)

// Scholar scrapes Google Scholar result pages.
type Scholar struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *Scholar) Name() string { return "google_scholar" }

// Fetch scrapes one result page per query. A blocked response (Scholar
// serves 503 when it suspects a bot) ends the fetch with whatever was
// collected so far.
func (p *Scholar) Fetch(ctx context.Context, queries []string, cfg types.SearchConfig) ([]types.Record, error) {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 50
	}

	var all []types.Record
	for _, q := range queries {
		records, err := p.search(ctx, q, cfg)
		all = append(all, records...)
		if err != nil {
			return all, fmt.Errorf("scholar query %q: %w", q, err)
		}
		if len(all) >= limit {
			return all[:limit], nil
		}
	}
	return all, nil
}

func (p *Scholar) search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.Record, error) {
	params := url.Values{
		"q":  {query},
		"hl": {"en"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scholarBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Scholar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("Scholar returned HTTP 503 (likely a CAPTCHA page)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Scholar returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing Scholar response: %w", err)
	}

	var records []types.Record
	doc.Find(".gs_r").Each(func(_ int, sel *goquery.Selection) {
		ri := sel.Find(".gs_ri").First()
		link := ri.Find(".gs_rt a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}

		rec := types.Record{
			"source":       "google_scholar",
			"search_query": query,
			"title":        title,
		}
		if href, ok := link.Attr("href"); ok {
			rec["url"] = href
		}
		if snippet := strings.TrimSpace(ri.Find(".gs_rs").Text()); snippet != "" {
			rec["snippet"] = snippet
		}
		if byline := strings.TrimSpace(ri.Find(".gs_a").Text()); byline != "" {
			rec["authors_raw"] = byline
		}
		if m := citedByPattern.FindStringSubmatch(ri.Find(".gs_fl").Text()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				rec["cited_by"] = n
			}
		}
		// Direct document link in the left-hand sidebar, when present.
		if pdfHref, ok := sel.Find(".gs_ggs a").First().Attr("href"); ok {
			rec["pdf_url"] = pdfHref
		}
		records = append(records, rec)
	})
	return records, nil
}
