// Package router maps free-text mode hints and light query heuristics
// onto the canonical answer Mode and intent tags that shape prompting
// and output budgets. Everything here is pure string inspection: no
// I/O, no external calls.
package router

import (
	"regexp"
	"strings"
)

// Mode selects the depth and structure of an answer.
type Mode string

const (
	ModeShort    Mode = "short"
	ModeLong     Mode = "long"
	ModeResearch Mode = "research"
	ModeAuto     Mode = "auto"
)

// IntentTags classifies what kind of output the query is asking for.
type IntentTags struct {
	// StrictCitation: the user asked for verbatim quotes only. The
	// pipeline reduces the answer to literal quoted spans plus section
	// identifiers after generation.
	StrictCitation bool

	// Scenario: board-memo / deliverable phrasing; structured sections
	// are expected rather than flowing narrative.
	Scenario bool
}

// Narrative reports the default intent: neither strict-citation nor
// scenario phrasing was detected.
func (t IntentTags) Narrative() bool { return !t.StrictCitation && !t.Scenario }

// ResolveMode maps a free-text mode hint onto a Mode. The vocabulary is
// fixed; anything unrecognized (including the empty hint) resolves to
// ModeLong, the deployment default. "auto" is preserved here and made
// concrete by ResolveAuto before any budgeting happens.
func ResolveMode(hint string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(hint))) {
	case ModeShort:
		return ModeShort
	case ModeLong:
		return ModeLong
	case ModeResearch:
		return ModeResearch
	case ModeAuto:
		return ModeAuto
	default:
		return ModeLong
	}
}

// regulatoryKeywords suggest a framework-comparison question that wants
// the full long treatment.
var regulatoryKeywords = []string{
	"ifrs", "aaoifi", "cbb", "rulebook", "standard", "fas ", "basel",
}

var comparisonKeywords = []string{"compare", " vs ", "difference", "differences"}

// ResolveAuto deterministically turns ModeAuto into one of the three
// concrete modes. Any already-concrete mode passes through unchanged.
func ResolveAuto(mode Mode, query string) Mode {
	if mode != ModeAuto {
		return mode
	}
	q := strings.ToLower(query)
	for _, kw := range regulatoryKeywords {
		if strings.Contains(q, kw) {
			return ModeLong
		}
	}
	for _, kw := range comparisonKeywords {
		if strings.Contains(q, kw) {
			return ModeLong
		}
	}
	if len(strings.TrimSpace(q)) < 80 {
		return ModeShort
	}
	return ModeResearch
}

var strictCitationPhrases = []string{
	"return only", "verbatim only", "quote only", "quotes only",
	"cite only", "citations only", "only the quotes", "only verbatim",
}

var scenarioPhrases = []string{
	"deliver:", "board-ready", "board ready", "board memo",
}

var kriWord = regexp.MustCompile(`\bkris?\b`)

// ResolveIntent inspects the query text for intent phrasing. Matching is
// case-insensitive substring search over a fixed phrase list, which is
// deliberately dumb: it has to be reproducible in tests.
func ResolveIntent(query string) IntentTags {
	q := strings.ToLower(query)
	var tags IntentTags
	for _, p := range strictCitationPhrases {
		if strings.Contains(q, p) {
			tags.StrictCitation = true
			break
		}
	}
	if strings.Contains(q, "verbatim") && strings.Contains(q, "only") {
		tags.StrictCitation = true
	}
	for _, p := range scenarioPhrases {
		if strings.Contains(q, p) {
			tags.Scenario = true
			break
		}
	}
	if kriWord.MatchString(q) {
		tags.Scenario = true
	}
	return tags
}
