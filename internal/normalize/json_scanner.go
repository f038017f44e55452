package normalize

// jsonCandidates scans text for top-level {...} spans, tracking brace
// depth while skipping string literals and escape sequences so braces
// inside quoted values do not confuse the boundary detection. Iterating
// bytes is safe for the ASCII delimiters involved: UTF-8 never reuses
// ASCII byte values inside multi-byte sequences.
func jsonCandidates(s string) []string {
	var (
		out      []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		b := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		}
	}
	// A truncated response can leave an unterminated object open; keep
	// the partial span so the repair and salvage tiers can work on it.
	if depth > 0 && start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// firstObjectSpan returns the first top-level JSON object span in s, or
// "" when the text contains no braces at all.
func firstObjectSpan(s string) string {
	candidates := jsonCandidates(s)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}
