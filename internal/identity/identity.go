// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity derives the canonical view of a bibliographic record
// used for duplicate comparison and artifact naming. Every function here
// is pure and total: malformed records degrade to empty fields, never errors.
package identity

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// Identity is the canonical (DOI, normalized title) view of a record.
// Two records denote the same work when their DOIs match exactly or their
// normalized titles are sufficiently similar.
type Identity struct {
	DOI             string
	NormalizedTitle string
}

// Of returns the canonical identity of a record.
func Of(rec types.Record) Identity {
	return Identity{
		DOI:             rec.DOI(),
		NormalizedTitle: NormalizeTitle(rec.Title()),
	}
}

// nonWord matches characters that are neither word characters nor whitespace.
var nonWord = regexp.MustCompile(`[^\w\s]`)

// NormalizeTitle lowercases the title, replaces punctuation with spaces,
// and collapses runs of whitespace. Deterministic and locale-independent.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	s := strings.ToLower(title)
	s = nonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// unsafeChars matches characters that are stripped from filenames.
var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)

var whitespace = regexp.MustCompile(`\s+`)

// SanitizeFilename turns an arbitrary string into a safe filename:
// filesystem-hostile characters removed, whitespace collapsed to
// underscores, length capped at 100.
func SanitizeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, "_")
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

// ArtifactID returns a stable identifier for the record's downloaded
// document. The priority order is DOI, arXiv ID, forum post ID, provider
// paper ID, then a truncated title. The same record always yields the same
// ID across runs, which is what makes re-running the downloader idempotent.
func ArtifactID(rec types.Record) string {
	if doi := rec.DOI(); doi != "" {
		return SanitizeFilename(strings.ReplaceAll(doi, "/", "_"))
	}
	if arxivID := rec.ArxivID(); arxivID != "" {
		// Some providers store the full entry URL; keep only the ID part.
		if strings.Contains(arxivID, "arxiv.org") {
			arxivID = arxivID[strings.LastIndex(arxivID, "/")+1:]
		}
		return SanitizeFilename("arxiv_" + arxivID)
	}
	if postID := rec.PostID(); postID != "" {
		return SanitizeFilename("lw_" + postID)
	}
	if paperID := rec.PaperID(); paperID != "" {
		return SanitizeFilename("s2_" + paperID)
	}
	title := rec.Title()
	if title == "" {
		title = "unknown"
	}
	if len(title) > 50 {
		title = title[:50]
	}
	return SanitizeFilename(title)
}

// ArtifactPath returns the target path for the record's document under dir.
func ArtifactPath(dir string, rec types.Record) string {
	return filepath.Join(dir, ArtifactID(rec)+".pdf")
}
