package answer

import "strings"

// ToMarkdown renders the Answer as a single markdown document with a
// deterministic section order: narrative body, comparison table,
// per-source evidence blocks, citations. Empty sections are omitted and
// internal structural keys never leak into the output.
func (a Answer) ToMarkdown() string {
	var parts []string

	body := strings.TrimSpace(a.RawNarrative)
	if body == "" {
		body = strings.TrimSpace(a.Summary)
	}
	if body != "" && !LooksJSONLike(body) {
		parts = append(parts, body)
	}

	// The model sometimes embeds its table inside the narrative; only
	// append the separated-out copy when it is genuinely additional.
	table := strings.TrimSpace(a.ComparisonTable)
	if table != "" && !strings.Contains(body, table) {
		parts = append(parts, "## Comparison\n\n"+table)
	}

	if block := a.perSourceMarkdown(body); block != "" {
		parts = append(parts, block)
	}

	if len(a.Citations) > 0 {
		lines := []string{"## Citations"}
		for _, c := range a.Citations {
			c = strings.TrimSpace(c)
			if c != "" {
				lines = append(lines, "- "+c)
			}
		}
		if len(lines) > 1 {
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}

	md := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if md == "" {
		md = EmptyNarrative
	}
	return md
}

func (a Answer) perSourceMarkdown(body string) string {
	ordered := OrderedFrameworks(a.PerSource)
	if len(ordered) == 0 {
		return ""
	}
	lines := []string{"## Evidence by Framework"}
	appended := false
	for _, fw := range ordered {
		sec := a.PerSource[fw]
		block := []string{"**" + string(fw) + "**"}
		if sec.Notes != "" {
			block = append(block, sec.Notes)
		}
		for _, q := range sec.Quotes {
			line := "> " + q.Snippet
			if q.Citation != "" {
				line += " — _" + q.Citation + "_"
			}
			block = append(block, line)
		}
		joined := strings.Join(block, "\n")
		// Skip sections the narrative already spelled out in full.
		if sec.Notes != "" && strings.Contains(body, sec.Notes) && len(sec.Quotes) == 0 {
			continue
		}
		lines = append(lines, joined)
		appended = true
	}
	if !appended {
		return ""
	}
	return strings.Join(lines, "\n\n")
}
