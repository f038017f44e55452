// Package llm wraps completion endpoints behind one narrow interface:
// ordered instruction/context blocks in, a single text blob out. The
// returned text may or may not be valid JSON; interpreting it is the
// normalizer's job, never this package's.
package llm

import (
	"context"
	"strings"
)

// Request carries everything one completion call needs.
type Request struct {
	// SystemBlocks are the ordered system-instruction blocks from the
	// prompt builder.
	SystemBlocks []string

	// EvidenceContext is the merged evidence block, empty when no
	// evidence was gathered.
	EvidenceContext string

	// ConversationBrief is the compressed prior-turn summary.
	ConversationBrief string

	// UserQuery is the question itself.
	UserQuery string

	// MaxOutputTokens bounds the response size, derived from Mode.
	MaxOutputTokens int
}

// CompletionClient is implemented per provider.
type CompletionClient interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// systemText joins the instruction blocks for providers that accept one
// system string.
func systemText(req Request) string {
	return strings.Join(req.SystemBlocks, "\n\n")
}

// userText assembles the user-side message: evidence first, then the
// conversation brief, then the question.
func userText(req Request) string {
	var parts []string
	if req.EvidenceContext != "" {
		parts = append(parts, "Context evidence:\n"+req.EvidenceContext)
	}
	if req.ConversationBrief != "" {
		parts = append(parts, "Conversation so far:\n"+req.ConversationBrief)
	}
	parts = append(parts, "Question: "+req.UserQuery)
	return strings.Join(parts, "\n\n")
}
