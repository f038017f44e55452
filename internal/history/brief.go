// Package history owns conversation turns: the pure summarizer that
// compresses prior turns into a prompt brief, and the SQLite-backed
// per-user persistence the chat front end uses.
package history

import (
	"strings"
	"time"
)

// Roles of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged conversation entry. Order is significant and
// owned by the caller; the pipeline only reads a suffix window.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// assistantBriefLimit bounds how much of an assistant turn survives into
// the brief; assistant answers are long and mostly redundant context.
const assistantBriefLimit = 280

// Brief renders the last maxPairs exchanges as a compact text block for
// prompt injection, oldest first. Empty history yields an empty string.
func Brief(turns []Turn, maxPairs int) string {
	if len(turns) == 0 || maxPairs <= 0 {
		return ""
	}
	window := turns
	if max := maxPairs * 2; len(window) > max {
		window = window[len(window)-max:]
	}
	var lines []string
	for _, t := range window {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch t.Role {
		case RoleAssistant:
			lines = append(lines, "Assistant: "+truncate(content, assistantBriefLimit))
		default:
			lines = append(lines, "User: "+content)
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := s[:limit]
	// Back up to a rune boundary so truncation never splits UTF-8.
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut + "…"
}
