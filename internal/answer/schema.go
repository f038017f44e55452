package answer

import (
	"encoding/json"
	"strings"
)

// The model is instructed to return a single JSON object with these
// field names. The prompt builder and the response normalizer both read
// this file; the two must never drift apart.
const (
	FieldRawMarkdown     = "raw_markdown"
	FieldSummary         = "summary"
	FieldPerSource       = "per_source"
	FieldComparisonTable = "comparison_table_md"
	FieldCitations       = "citations"
	FieldFollowUps       = "follow_up_suggestions"
)

// Envelope mirrors the JSON object requested from the completion
// endpoint. It is deliberately tolerant: models frequently bend the
// shape, and the normalizer salvages what it can.
type Envelope struct {
	RawMarkdown     string                        `json:"raw_markdown"`
	Summary         string                        `json:"summary"`
	PerSource       map[string]EnvelopeSection    `json:"per_source"`
	ComparisonTable string                        `json:"comparison_table_md"`
	Citations       []string                      `json:"citations"`
	FollowUps       []string                      `json:"follow_up_suggestions"`
}

// EnvelopeSection accepts either the requested object shape
// {"notes": ..., "quotes": [...]} or a bare array of quote strings,
// which some completions return despite instructions.
type EnvelopeSection struct {
	Notes  string          `json:"notes"`
	Quotes []EnvelopeQuote `json:"quotes"`
}

// EnvelopeQuote accepts either a structured quote object or a plain
// string snippet.
type EnvelopeQuote struct {
	Framework string `json:"framework"`
	Snippet   string `json:"snippet"`
	Citation  string `json:"citation"`
}

func (q *EnvelopeQuote) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		q.Snippet = s
		return nil
	}
	type alias EnvelopeQuote
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*q = EnvelopeQuote(a)
	return nil
}

func (s *EnvelopeSection) UnmarshalJSON(data []byte) error {
	var quotes []EnvelopeQuote
	if err := json.Unmarshal(data, &quotes); err == nil {
		s.Quotes = quotes
		return nil
	}
	type alias EnvelopeSection
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = EnvelopeSection(a)
	return nil
}

// ToAnswer maps a parsed envelope onto the typed Answer. String fields
// are newline-unescaped exactly once here; empty per-source sections are
// dropped rather than kept as placeholders.
func (e Envelope) ToAnswer() Answer {
	ans := Answer{
		RawNarrative:        UnescapeNewlines(StripCodeFence(e.RawMarkdown)),
		Summary:             UnescapeNewlines(strings.TrimSpace(e.Summary)),
		ComparisonTable:     UnescapeNewlines(StripCodeFence(e.ComparisonTable)),
		Citations:           e.Citations,
		FollowUpSuggestions: e.FollowUps,
	}
	for name, sec := range e.PerSource {
		fw := Framework(strings.TrimSpace(name))
		if fw == "" {
			continue
		}
		out := PerSourceSection{Notes: UnescapeNewlines(strings.TrimSpace(sec.Notes))}
		for _, q := range sec.Quotes {
			snippet := UnescapeNewlines(strings.TrimSpace(q.Snippet))
			if snippet == "" {
				continue
			}
			qfw := Framework(q.Framework)
			if qfw == "" {
				qfw = fw
			}
			out.Quotes = append(out.Quotes, Quote{
				Framework: qfw,
				Snippet:   snippet,
				Citation:  strings.TrimSpace(q.Citation),
			})
		}
		if out.Notes == "" && len(out.Quotes) == 0 {
			continue
		}
		if ans.PerSource == nil {
			ans.PerSource = make(map[Framework]PerSourceSection)
		}
		ans.PerSource[fw] = out
	}
	return ans
}
