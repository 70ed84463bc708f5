// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"io"
)

// ExportMarkdown renders the catalog grouped by source. Entries with a
// downloaded artifact link to the local file; the rest link to their
// source URL when one is known.
func (s *Store) ExportMarkdown(ctx context.Context, w io.Writer) error {
	entries, err := s.List(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "# Literature Catalog")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d works.\n", len(entries))

	var lastSource string
	for _, e := range entries {
		if e.Source != lastSource {
			fmt.Fprintf(w, "\n## %s\n\n", e.Source)
			lastSource = e.Source
		}

		title := e.Title
		if title == "" {
			title = e.ID
		}
		switch {
		case e.ArtifactPath != "":
			fmt.Fprintf(w, "- [%s](%s)", title, e.ArtifactPath)
		case e.URL != "":
			fmt.Fprintf(w, "- [%s](%s)", title, e.URL)
		default:
			fmt.Fprintf(w, "- %s", title)
		}
		if e.DOI != "" {
			fmt.Fprintf(w, " (doi:%s)", e.DOI)
		}
		fmt.Fprintln(w)
	}
	return nil
}
