// Package answer defines the normalized answer type produced by the
// orchestration pipeline, the shared model-output schema, and the markdown
// renderer the UI consumes.
package answer

import (
	"regexp"
	"sort"
	"strings"
)

// Framework identifies a regulatory source framework.
type Framework string

const (
	FrameworkIFRS           Framework = "IFRS"
	FrameworkAAOIFI         Framework = "AAOIFI"
	FrameworkCBB            Framework = "CBB"
	FrameworkInternalPolicy Framework = "InternalPolicy"
)

// canonicalOrder is the fixed rendering order for per-source evidence.
// Frameworks outside this list render afterwards, alphabetically.
var canonicalOrder = []Framework{
	FrameworkIFRS,
	FrameworkAAOIFI,
	FrameworkCBB,
	FrameworkInternalPolicy,
}

// Quote is a verbatim evidence quote attributed to a framework.
// Quotes are only ever produced by the completion endpoint; the pipeline
// never fabricates them.
type Quote struct {
	Framework Framework `json:"framework"`
	Snippet   string    `json:"snippet"`
	Citation  string    `json:"citation,omitempty"`
}

// PerSourceSection holds the evidence a single framework contributed.
// A framework with no evidence is absent from the map entirely; there is
// no "not found" sentinel.
type PerSourceSection struct {
	Notes  string  `json:"notes,omitempty"`
	Quotes []Quote `json:"quotes,omitempty"`
}

// Answer is the single well-typed output of the pipeline. It is
// constructed once per request by the response normalizer and is not
// shared or cached across requests.
type Answer struct {
	// RawNarrative is the primary rendered body. Never empty in a
	// returned Answer; total parse failure yields Empty() instead.
	RawNarrative string

	Summary         string
	PerSource       map[Framework]PerSourceSection
	ComparisonTable string

	// FollowUpSuggestions always has at least one entry once the
	// pipeline has post-processed the Answer.
	FollowUpSuggestions []string

	Citations []string
}

// EmptyNarrative is the explanatory body of the terminal fallback Answer.
const EmptyNarrative = "No answer was produced."

// Empty returns the terminal fallback Answer: a constant, fully
// renderable value used when every salvage tier fails.
func Empty() Answer {
	return Answer{
		RawNarrative:        EmptyNarrative,
		FollowUpSuggestions: DefaultFollowUps(""),
	}
}

// defaultAspects are the fixed aspects used to template follow-up
// suggestions when the model omits them.
var defaultAspects = []string{
	"What are approval thresholds and board oversight for %s?",
	"Draft a closure checklist for %s with controls and required evidence.",
	"What reporting pack fields should be in the monthly board pack for %s?",
	"How should breaches/exceptions for %s be escalated and documented?",
	"What stress-test scenarios are relevant for %s and how to calibrate them?",
	"What are the key risks, controls, and KRIs for %s (with metrics)?",
}

// DefaultFollowUps deterministically templates follow-up suggestions for
// a topic. The topic falls back to "this topic" when blank.
func DefaultFollowUps(topic string) []string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "this topic"
	}
	out := make([]string, 0, len(defaultAspects))
	for _, tmpl := range defaultAspects {
		out = append(out, strings.Replace(tmpl, "%s", topic, 1))
	}
	return out
}

// OrderedFrameworks returns the keys of a per-source map in rendering
// order: the canonical frameworks first, then any others alphabetically.
func OrderedFrameworks(m map[Framework]PerSourceSection) []Framework {
	if len(m) == 0 {
		return nil
	}
	var ordered []Framework
	seen := make(map[Framework]bool, len(m))
	for _, fw := range canonicalOrder {
		if _, ok := m[fw]; ok {
			ordered = append(ordered, fw)
			seen[fw] = true
		}
	}
	var rest []Framework
	for fw := range m {
		if !seen[fw] {
			rest = append(rest, fw)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(ordered, rest...)
}

// UnescapeNewlines maps literal two-character "\n" sequences to real line
// breaks. Idempotent: a string that already contains real newlines is
// returned unchanged, so running it twice cannot double-unescape.
func UnescapeNewlines(s string) string {
	if strings.Contains(s, `\n`) && !strings.Contains(s, "\n") {
		s = strings.ReplaceAll(s, `\n`, "\n")
	}
	return s
}

var (
	fenceOpen  = regexp.MustCompile("^```[a-zA-Z0-9_-]*[ \t]*\r?\n?")
	fenceClose = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// StripCodeFence removes a fenced-code-block wrapper when the entire
// string is wrapped in one (language tag optional). Partial fences inside
// the body are left alone.
func StripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return t
	}
	t = fenceOpen.ReplaceAllString(t, "")
	t = fenceClose.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// LooksJSONLike reports whether a string appears to be a bare JSON value
// rather than prose. Used to keep raw JSON dumps out of rendered output.
func LooksJSONLike(s string) bool {
	s = strings.TrimSpace(s)
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}
