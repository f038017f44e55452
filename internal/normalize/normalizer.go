// Package normalize turns raw completion-endpoint output into a typed
// answer.Answer. The endpoint is an unreliable oracle: it may return the
// requested JSON object, a fenced or truncated variant of it, or plain
// prose that ignores the directive entirely. Normalization degrades
// through tiers instead of failing:
//
//	raw text -> strip fences -> strict JSON -> trailing-comma repair
//	         -> narrative field salvage -> plain text -> empty fallback
//
// Every tier ends in a renderable Answer; callers never see an error.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"regulaite/internal/answer"
)

// Method records which tier produced the Answer. Useful for logging and
// for the orchestrator's single strict-JSON retry decision.
type Method string

const (
	MethodStructured Method = "structured"
	MethodRepaired   Method = "repaired"
	MethodSalvaged   Method = "salvaged"
	MethodPlainText  Method = "plain_text"
	MethodEmpty      Method = "empty"
)

// Result is the normalizer's output: the Answer plus parse metadata.
type Result struct {
	Answer   answer.Answer
	Method   Method
	Warnings []string
}

// Failed reports whether normalization bottomed out at the empty
// fallback, i.e. nothing usable was recovered from the response.
func (r Result) Failed() bool { return r.Method == MethodEmpty }

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// narrativeField matches the primary narrative field's string value even
// when the surrounding JSON is broken. The second alternative tolerates
// a truncated response that never closes the quote.
var narrativeField = regexp.MustCompile(
	`"` + answer.FieldRawMarkdown + `"\s*:\s*"((?:[^"\\]|\\.)*)(?:"|$)`)

// Normalize runs the tiered state machine over a raw completion response.
func Normalize(raw string) Result {
	stripped := answer.StripCodeFence(raw)

	span := firstObjectSpan(stripped)
	if span != "" {
		// Tier 1: strict parse.
		if env, ok := parseEnvelope(span); ok {
			return validate(env.ToAnswer(), MethodStructured, nil)
		}

		// Tier 2: one repair pass, stripping trailing commas before
		// closing braces/brackets, then reparse.
		if env, ok := parseEnvelope(trailingComma.ReplaceAllString(span, "$1")); ok {
			return validate(env.ToAnswer(), MethodRepaired,
				[]string{"json repaired: trailing commas removed"})
		}

		// Tier 3: salvage just the narrative field from broken JSON.
		if narrative := salvageNarrative(span); narrative != "" {
			ans := answer.Answer{RawNarrative: narrative}
			return validate(ans, MethodSalvaged,
				[]string{"json unparseable: narrative field salvaged"})
		}
	}

	// Tier 4: the model replied in prose. Accepted outcome, not an
	// error: the stripped text itself becomes the narrative, unless it
	// is a bare JSON dump we just failed to parse.
	if stripped != "" && !answer.LooksJSONLike(stripped) {
		ans := answer.Answer{RawNarrative: answer.UnescapeNewlines(stripped)}
		return validate(ans, MethodPlainText, nil)
	}

	return Result{Answer: answer.Empty(), Method: MethodEmpty,
		Warnings: []string{"no usable content in response"}}
}

// parseEnvelope attempts a strict unmarshal and rejects envelopes that
// carry none of the schema fields (e.g. an unrelated JSON object).
func parseEnvelope(s string) (answer.Envelope, bool) {
	var env answer.Envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return answer.Envelope{}, false
	}
	if env.RawMarkdown == "" && env.Summary == "" && len(env.PerSource) == 0 &&
		env.ComparisonTable == "" && len(env.Citations) == 0 && len(env.FollowUps) == 0 {
		return answer.Envelope{}, false
	}
	return env, true
}

// salvageNarrative regex-extracts the primary narrative field's value
// from almost-JSON and decodes its escape sequences.
func salvageNarrative(s string) string {
	m := narrativeField.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return answer.UnescapeNewlines(answer.StripCodeFence(unquoteJSON(m[1])))
}

// unquoteJSON decodes a JSON string body. Truncated bodies that
// strconv.Unquote rejects fall back to decoding the common escapes by
// hand so a partial narrative still renders.
func unquoteJSON(body string) string {
	if decoded, err := strconv.Unquote(`"` + body + `"`); err == nil {
		return decoded
	}
	r := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`)
	return r.Replace(body)
}

// validate enforces the non-empty narrative invariant before the Answer
// leaves the normalizer. A structured envelope whose narrative field was
// blank falls back to its summary; if nothing renders, the terminal
// empty fallback is returned instead.
func validate(ans answer.Answer, method Method, warnings []string) Result {
	if strings.TrimSpace(ans.RawNarrative) == "" {
		if s := strings.TrimSpace(ans.Summary); s != "" {
			ans.RawNarrative = s
		} else if md := ans.ToMarkdown(); md != answer.EmptyNarrative {
			// The composed render already carries the structured
			// sections; clear them so a later ToMarkdown call does not
			// emit the same blocks twice.
			ans.RawNarrative = md
			ans.PerSource = nil
			ans.ComparisonTable = ""
			ans.Citations = nil
		} else {
			return Result{Answer: answer.Empty(), Method: MethodEmpty,
				Warnings: append(warnings, "validation failed: nothing renderable")}
		}
	}
	return Result{Answer: ans, Method: method, Warnings: warnings}
}
