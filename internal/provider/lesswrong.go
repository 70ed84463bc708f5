// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// Endpoint bases, vars so tests can substitute httptest servers. LessWrong
// has no search API, so discovery goes through DuckDuckGo's HTML frontend
// with a site: filter, and post content comes from the GraphQL API.
var (
	duckduckgoHTMLBase   = "https://html.duckduckgo.com/html/"
	lesswrongGraphQLBase = "https://www.lesswrong.com/graphql"
)

const lesswrongSite = "lesswrong.com"

// postBySlugQuery fetches one post's metadata from the forum GraphQL API.
const postBySlugQuery = `
query GetPostBySlug($slug: String!) {
  post(input: {selector: {slug: $slug}}) {
    result {
      _id
      title
      slug
      pageUrl
      postedAt
      baseScore
      user {
        displayName
      }
    }
  }
}`

// postURLPattern matches forum post URLs: /posts/{post_id}/{slug}.
var postURLPattern = regexp.MustCompile(`/posts/([^/]+)(?:/([^/?#]+))?`)

// LessWrong discovers forum posts via site-search and resolves them
// through the GraphQL API.
type LessWrong struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *LessWrong) Name() string { return "lesswrong" }

// Fetch searches each query and resolves discovered posts. A post whose
// GraphQL lookup fails still yields a record with the URL and the
// search-result title, so one bad post never hides the rest.
func (p *LessWrong) Fetch(ctx context.Context, queries []string, cfg types.SearchConfig) ([]types.Record, error) {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 20
	}

	seen := make(map[string]struct{})
	var all []types.Record
	for _, q := range queries {
		hits, err := p.siteSearch(ctx, q, cfg)
		if err != nil {
			return all, fmt.Errorf("lesswrong query %q: %w", q, err)
		}
		for _, hit := range hits {
			if _, ok := seen[hit.url]; ok {
				continue
			}
			seen[hit.url] = struct{}{}

			rec := p.resolvePost(ctx, hit, cfg)
			rec["search_query"] = q
			all = append(all, rec)
			if len(all) >= limit {
				return all, nil
			}
		}
	}
	return all, nil
}

type ddgHit struct {
	url   string
	title string
}

// siteSearch scrapes DuckDuckGo's HTML results for site-scoped hits.
func (p *LessWrong) siteSearch(ctx context.Context, query string, cfg types.SearchConfig) ([]ddgHit, error) {
	form := url.Values{
		"q": {fmt.Sprintf("site:%s %s", lesswrongSite, query)},
		"b": {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, duckduckgoHTMLBase,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo response: %w", err)
	}

	var hits []ddgHit
	doc.Find(".result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		actual := resolveDDGRedirect(href)
		// Only actual posts, not wiki or tag pages.
		if !strings.Contains(actual, lesswrongSite) || !strings.Contains(actual, "/posts/") {
			return
		}
		hits = append(hits, ddgHit{url: actual, title: strings.TrimSpace(link.Text())})
	})
	return hits, nil
}

// resolveDDGRedirect unwraps DuckDuckGo's uddg redirect parameter.
func resolveDDGRedirect(href string) string {
	idx := strings.Index(href, "uddg=")
	if idx < 0 {
		return href
	}
	encoded := href[idx+len("uddg="):]
	if amp := strings.Index(encoded, "&"); amp >= 0 {
		encoded = encoded[:amp]
	}
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return href
	}
	return decoded
}

// resolvePost fills in post metadata from the GraphQL API, degrading to
// the search-result fields when the lookup fails.
func (p *LessWrong) resolvePost(ctx context.Context, hit ddgHit, cfg types.SearchConfig) types.Record {
	rec := types.Record{
		"source": "lesswrong",
		"url":    hit.url,
		"title":  hit.title,
	}

	m := postURLPattern.FindStringSubmatch(hit.url)
	if m == nil {
		return rec
	}
	postID, slug := m[1], m[2]
	rec["post_id"] = postID
	if slug == "" {
		return rec
	}

	post, err := p.postBySlug(ctx, slug, cfg)
	if err != nil || post == nil {
		return rec
	}

	rec["post_id"] = post.ID
	rec["title"] = post.Title
	rec["url"] = post.PageURL
	rec["published"] = post.PostedAt
	rec["score"] = post.BaseScore
	if post.User.DisplayName != "" {
		rec["author"] = post.User.DisplayName
	}
	return rec
}

type lesswrongPost struct {
	ID        string  `json:"_id"`
	Title     string  `json:"title"`
	PageURL   string  `json:"pageUrl"`
	PostedAt  string  `json:"postedAt"`
	BaseScore float64 `json:"baseScore"`
	User      struct {
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

func (p *LessWrong) postBySlug(ctx context.Context, slug string, cfg types.SearchConfig) (*lesswrongPost, error) {
	body, err := json.Marshal(map[string]any{
		"query":     postBySlugQuery,
		"variables": map[string]string{"slug": slug},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lesswrongGraphQLBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GraphQL request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GraphQL endpoint returned HTTP %d", resp.StatusCode)
	}

	var gr struct {
		Data struct {
			Post struct {
				Result *lesswrongPost `json:"result"`
			} `json:"post"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing GraphQL response: %w", err)
	}
	return gr.Data.Post.Result, nil
}
