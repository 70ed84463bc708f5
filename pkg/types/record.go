// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the lit-pipeline stages.
package types

import "strings"

// Record is one bibliographic entry exactly as a provider returned it.
// Providers disagree about field names and nesting, so the record stays an
// opaque JSON object and downstream stages read it only through the
// accessor methods below. Records are never mutated after decoding.
type Record map[string]any

// stringField returns the named field as a trimmed string, or "" when the
// field is absent or not a string.
func (r Record) stringField(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// DOI returns the record's DOI, lowercased for comparison. It checks the
// top-level "doi" field first, then "externalIds.DOI" (Semantic Scholar's
// nesting). Returns "" when the record has no DOI.
func (r Record) DOI() string {
	if doi := r.stringField("doi"); doi != "" {
		return strings.ToLower(doi)
	}
	if ext, ok := r["externalIds"].(map[string]any); ok {
		if doi, ok := ext["DOI"].(string); ok && strings.TrimSpace(doi) != "" {
			return strings.ToLower(strings.TrimSpace(doi))
		}
	}
	return ""
}

// Title returns the record's title, or "".
func (r Record) Title() string {
	return r.stringField("title")
}

// Source returns the provider that produced the record, or "unknown".
func (r Record) Source() string {
	if s := r.stringField("source"); s != "" {
		return s
	}
	return "unknown"
}

// ArxivID returns the record's arXiv identifier, or "". Some providers
// store a full entry URL ("http://arxiv.org/abs/2301.07041v1"); the caller
// is responsible for stripping the URL part when building artifact IDs.
func (r Record) ArxivID() string {
	return r.stringField("arxiv_id")
}

// PostID returns the forum post identifier, or "".
func (r Record) PostID() string {
	return r.stringField("post_id")
}

// PaperID returns the provider-internal paper identifier, or "".
func (r Record) PaperID() string {
	return r.stringField("paperId")
}

// PDFURL returns the document URL for the record, or "" when none is
// present. It checks "pdf_url" first, then "openAccessPdf", which
// Semantic Scholar returns either as an object with a "url" field or as a
// bare string.
func (r Record) PDFURL() string {
	if u := r.stringField("pdf_url"); u != "" {
		return u
	}
	switch oa := r["openAccessPdf"].(type) {
	case map[string]any:
		if u, ok := oa["url"].(string); ok {
			return strings.TrimSpace(u)
		}
	case string:
		return strings.TrimSpace(oa)
	}
	return ""
}
