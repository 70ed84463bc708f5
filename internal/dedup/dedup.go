// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup merges raw search results from multiple providers into a
// single list with one record per distinct work. Records are matched by
// exact DOI first, then by fuzzy title similarity.
package dedup

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/pdiddy/lit-pipeline/internal/identity"
	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// DefaultThreshold is the title-similarity threshold used when the caller
// does not configure one.
const DefaultThreshold = 0.85

// simParams uses unit edit costs, giving 1 - distance/maxLen.
var simParams = levenshtein.NewParams()

// Similarity returns a token-order-insensitive similarity score in [0,1]
// for two normalized titles: both are split into tokens, the tokens are
// sorted, and the rejoined strings are compared by normalized edit
// distance. "foo bar" and "bar foo" therefore score 1.0.
func Similarity(a, b string) float64 {
	return levenshtein.Similarity(tokenSort(a), tokenSort(b), simParams)
}

func tokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Deduplicate returns the records with duplicates removed, plus the count
// of records dropped. The pass is a single forward scan: a record whose
// DOI was already seen is dropped immediately; otherwise its normalized
// title is compared against every previously retained title and dropped
// when any similarity reaches threshold (inclusive). The first-seen record
// of a duplicate group is always the one kept, so output order is the
// first-occurrence order of the input. Records with neither DOI nor title
// are always retained and never used as comparison anchors.
//
// A threshold outside (0,1] falls back to DefaultThreshold.
func Deduplicate(records []types.Record, threshold float64) ([]types.Record, int) {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	seenDOIs := make(map[string]struct{})
	var seenTitles []string
	deduped := make([]types.Record, 0, len(records))
	removed := 0

	for _, rec := range records {
		id := identity.Of(rec)

		if id.DOI != "" {
			if _, ok := seenDOIs[id.DOI]; ok {
				removed++
				continue
			}
			// A new DOI does not exempt the record from title matching:
			// the same work may have arrived earlier without a DOI.
			seenDOIs[id.DOI] = struct{}{}
		}

		if id.NormalizedTitle != "" {
			duplicate := false
			for _, seen := range seenTitles {
				if Similarity(id.NormalizedTitle, seen) >= threshold {
					duplicate = true
					break
				}
			}
			if duplicate {
				removed++
				continue
			}
			seenTitles = append(seenTitles, id.NormalizedTitle)
		}

		deduped = append(deduped, rec)
	}

	return deduped, removed
}
