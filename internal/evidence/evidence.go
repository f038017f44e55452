// Package evidence gathers supporting material for a question from the
// document index and the web. Gatherers never fail: any provider or
// transport error is absorbed and surfaces as an empty result list,
// because evidence absence is an expected outcome, not an error state.
package evidence

import (
	"context"
	"strings"
)

// Record is one piece of evidence handed to the prompt.
type Record struct {
	Title   string
	URL     string
	Snippet string
}

// maxSnippetLen bounds snippet size to keep prompt growth in check.
const maxSnippetLen = 400

// Searcher is the narrow query interface the pipeline consumes.
type Searcher interface {
	Search(ctx context.Context, query string, k int) []Record
}

// clampSnippet trims and bounds a snippet, cutting at a rune boundary.
func clampSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxSnippetLen {
		return s
	}
	cut := s[:maxSnippetLen]
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut + "…"
}

// BuildContext merges evidence into one prompt block. Index results come
// first: internal documents take precedence over web snippets.
func BuildContext(indexRecords, webRecords []Record) string {
	if len(indexRecords) == 0 && len(webRecords) == 0 {
		return ""
	}
	var b strings.Builder
	if len(indexRecords) > 0 {
		b.WriteString("Retrieved documents (primary evidence):\n")
		writeRecords(&b, indexRecords)
	}
	if len(webRecords) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Web snippets (secondary evidence):\n")
		writeRecords(&b, webRecords)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeRecords(b *strings.Builder, records []Record) {
	for _, r := range records {
		b.WriteString("- ")
		if r.Title != "" {
			b.WriteString(r.Title)
			b.WriteString(": ")
		}
		b.WriteString(clampSnippet(r.Snippet))
		if r.URL != "" {
			b.WriteString(" [")
			b.WriteString(r.URL)
			b.WriteString("]")
		}
		b.WriteString("\n")
	}
}
