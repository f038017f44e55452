package answer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeToAnswer(t *testing.T) {
	t.Run("full shape", func(t *testing.T) {
		raw := `{
			"raw_markdown": "# Title\\nBody text",
			"summary": "Short summary.",
			"per_source": {
				"CBB": {"notes": "Volume CM applies.", "quotes": [
					{"framework": "CBB", "snippet": "Limit is 15%.", "citation": "CM-5.3.1"}
				]}
			},
			"comparison_table_md": "| a | b |",
			"citations": ["CBB CM-5.3.1"],
			"follow_up_suggestions": ["One?", "Two?"]
		}`
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(raw), &env))

		ans := env.ToAnswer()
		assert.Equal(t, "# Title\nBody text", ans.RawNarrative)
		assert.Equal(t, "Short summary.", ans.Summary)
		assert.Equal(t, "| a | b |", ans.ComparisonTable)
		assert.Equal(t, []string{"CBB CM-5.3.1"}, ans.Citations)
		assert.Equal(t, []string{"One?", "Two?"}, ans.FollowUpSuggestions)

		require.Contains(t, ans.PerSource, FrameworkCBB)
		sec := ans.PerSource[FrameworkCBB]
		assert.Equal(t, "Volume CM applies.", sec.Notes)
		require.Len(t, sec.Quotes, 1)
		assert.Equal(t, "CM-5.3.1", sec.Quotes[0].Citation)
	})

	t.Run("section as bare quote array", func(t *testing.T) {
		raw := `{"raw_markdown": "x", "per_source": {"IFRS": ["ECL is forward looking."]}}`
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(raw), &env))

		ans := env.ToAnswer()
		require.Contains(t, ans.PerSource, FrameworkIFRS)
		quotes := ans.PerSource[FrameworkIFRS].Quotes
		require.Len(t, quotes, 1)
		assert.Equal(t, "ECL is forward looking.", quotes[0].Snippet)
		// Quote framework defaults to the section key.
		assert.Equal(t, FrameworkIFRS, quotes[0].Framework)
	})

	t.Run("empty sections dropped", func(t *testing.T) {
		raw := `{"raw_markdown": "x", "per_source": {"AAOIFI": {"notes": "", "quotes": []}}}`
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(raw), &env))
		assert.NotContains(t, env.ToAnswer().PerSource, FrameworkAAOIFI)
	})

	t.Run("fenced narrative unwrapped once", func(t *testing.T) {
		raw := `{"raw_markdown": "` + "```markdown\\nBody\\n```" + `"}`
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(raw), &env))
		assert.Equal(t, "Body", env.ToAnswer().RawNarrative)
	})
}

func TestToMarkdown(t *testing.T) {
	t.Run("section order", func(t *testing.T) {
		ans := Answer{
			RawNarrative:    "Narrative body.",
			ComparisonTable: "| Topic | IFRS 9 |",
			PerSource: map[Framework]PerSourceSection{
				FrameworkCBB: {Quotes: []Quote{{Framework: FrameworkCBB, Snippet: "q", Citation: "CM-1.1"}}},
			},
			Citations: []string{"CBB CM-1.1"},
		}
		md := ans.ToMarkdown()

		narrative := indexOf(t, md, "Narrative body.")
		table := indexOf(t, md, "## Comparison")
		evidence := indexOf(t, md, "## Evidence by Framework")
		citations := indexOf(t, md, "## Citations")
		assert.Less(t, narrative, table)
		assert.Less(t, table, evidence)
		assert.Less(t, evidence, citations)
	})

	t.Run("table embedded in narrative not duplicated", func(t *testing.T) {
		ans := Answer{
			RawNarrative:    "Intro\n\n| Topic | IFRS 9 |\n\nOutro",
			ComparisonTable: "| Topic | IFRS 9 |",
		}
		assert.NotContains(t, ans.ToMarkdown(), "## Comparison")
	})

	t.Run("json-looking narrative suppressed", func(t *testing.T) {
		ans := Answer{RawNarrative: `{"raw_markdown": "x"}`, Summary: ""}
		assert.Equal(t, EmptyNarrative, ans.ToMarkdown())
	})

	t.Run("empty answer renders fallback", func(t *testing.T) {
		assert.Equal(t, EmptyNarrative, Answer{}.ToMarkdown())
	})

	t.Run("summary stands in for missing narrative", func(t *testing.T) {
		ans := Answer{Summary: "Summary only."}
		assert.Contains(t, ans.ToMarkdown(), "Summary only.")
	})
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "%q not found in rendered markdown", needle)
	return idx
}
