package pipeline

import (
	"regexp"
	"strings"
)

// NotFound is the exact narrative for strict-citation queries where the
// model produced no quotable span.
const NotFound = "not found"

var (
	// Straight or curly double quotes; span must be non-empty.
	quotedSpan = regexp.MustCompile(`"([^"]+)"|\x{201C}([^\x{201C}\x{201D}]+)\x{201D}`)

	// Section references like CM-5.3.1, IFRS 9, FAS 30, IAS 37.45 or
	// Basel III paragraph numbers.
	sectionRef = regexp.MustCompile(`\b[A-Z]{2,6}[\s-]?\d+(?:\.\d+)*\b`)
)

// ReduceToCitations rewrites a narrative for verbatim-only queries. It
// keeps each quoted span together with the nearest section reference
// that follows it, one per line. A narrative with no quoted span at all
// becomes exactly NotFound.
func ReduceToCitations(narrative string) string {
	if strings.TrimSpace(narrative) == NotFound {
		return NotFound
	}

	matches := quotedSpan.FindAllStringSubmatchIndex(narrative, -1)
	if len(matches) == 0 {
		return NotFound
	}

	var lines []string
	for i, m := range matches {
		span := submatch(narrative, m)
		if strings.TrimSpace(span) == "" {
			continue
		}
		// Look for a reference between this quote and the next one.
		tail := narrative[m[1]:]
		if i+1 < len(matches) {
			tail = narrative[m[1]:matches[i+1][0]]
		}
		line := `"` + span + `"`
		if ref := sectionRef.FindString(tail); ref != "" {
			line += " " + ref
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return NotFound
	}
	return strings.Join(lines, "\n")
}

// submatch returns whichever capture group matched (straight or curly).
func submatch(s string, m []int) string {
	if m[2] >= 0 {
		return s[m[2]:m[3]]
	}
	return s[m[4]:m[5]]
}
