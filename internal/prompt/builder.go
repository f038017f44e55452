// Package prompt composes the system instruction sent to the completion
// endpoint and owns the per-mode output budgets. Composition is pure
// string assembly; malformed inputs are a programming error upstream
// (resolve the mode first), not a runtime failure here.
package prompt

import (
	"fmt"
	"strings"

	"regulaite/internal/answer"
	"regulaite/internal/router"
)

// Build returns the ordered system-instruction blocks for one request:
// persona and house rules, style guide, mode addendum, evidence
// directive, and the output-shape directive derived from the shared
// answer schema.
func Build(mode router.Mode, intent router.IntentTags, evidenceEnabled bool, kHint int) []string {
	blocks := []string{baseRules, styleGuide}

	blocks = append(blocks, modeAddendum(mode))

	if intent.StrictCitation {
		blocks = append(blocks, strictCitationAddendum)
	} else if intent.Scenario {
		blocks = append(blocks, scenarioAddendum)
	}

	blocks = append(blocks, evidenceDirective(evidenceEnabled, kHint))
	blocks = append(blocks, SchemaDirective())
	return blocks
}

// WithStrictJSONRetry appends the must-be-JSON reminder used on the
// single bounded retry after a parse failure.
func WithStrictJSONRetry(blocks []string) []string {
	out := make([]string, len(blocks), len(blocks)+1)
	copy(out, blocks)
	return append(out, strictJSONReminder)
}

func modeAddendum(mode router.Mode) string {
	switch mode {
	case router.ModeShort:
		return `Mode: SHORT.
- Tight and punchy (~250-400 words).
- No comparison table.
- Provide key thresholds, approval ladder, mini checklist.`
	case router.ModeResearch:
		return `Mode: RESEARCH.
- Deep-dive (~1400-2000 words): Exec summary; Detailed guidance per framework; Key differences; Governance/controls; Reporting fields; Implementation checklist; Open issues.
- Include comparison_table_md with columns: Topic | IFRS 9 | AAOIFI | CBB (>= 12 rows).
- Add risks, controls, evidence expectations, regulator lenses.`
	default: // long is the deployment default
		return `Mode: LONG.
- Rich guidance with specifics for the bank (~900-1300 words).
- Include comparison_table_md with columns: Topic | IFRS 9 | AAOIFI | CBB (>= 8 rows).
- Include an implementation checklist and common pitfalls.`
	}
}

func evidenceDirective(enabled bool, kHint int) string {
	if enabled {
		return fmt.Sprintf(`Evidence mode is ON (top-K retrieval hint: %d).
Use 2-5 concise verbatim quotes per addressed framework when possible.
Prefer retrieved documents; web snippets (if any) are secondary.
Omit a framework entirely when you have no evidence for it.`, kHint)
	}
	return "Evidence mode is OFF: provide detailed guidance; cite when relying on an external source."
}

// SchemaDirective names exactly the fields the response normalizer knows
// how to parse. The field names come from internal/answer so the builder
// and the parser cannot drift apart.
func SchemaDirective() string {
	var b strings.Builder
	b.WriteString("You MUST return a single JSON object (no prose outside it) with these fields:\n")
	fmt.Fprintf(&b, "- %s (string; the full markdown answer body — this is what the user reads)\n", answer.FieldRawMarkdown)
	fmt.Fprintf(&b, "- %s (string; 2-4 sentence executive summary)\n", answer.FieldSummary)
	fmt.Fprintf(&b, "- %s (object; optional keys IFRS, AAOIFI, CBB, InternalPolicy — each {notes, quotes:[{framework, snippet, citation}]}; OMIT a key when you have nothing for it)\n", answer.FieldPerSource)
	fmt.Fprintf(&b, "- %s (optional string; GitHub-flavored markdown table)\n", answer.FieldComparisonTable)
	fmt.Fprintf(&b, "- %s (array of strings)\n", answer.FieldCitations)
	fmt.Fprintf(&b, "- %s (array of 6 useful, CRO-ready strings)\n", answer.FieldFollowUps)
	b.WriteString("Return only the strict JSON object — no markdown outside string fields.")
	return b.String()
}
