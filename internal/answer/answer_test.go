package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnescapeNewlines(t *testing.T) {
	t.Run("literal sequences become line breaks", func(t *testing.T) {
		assert.Equal(t, "a\nb", UnescapeNewlines(`a\nb`))
	})

	t.Run("real newlines suppress unescaping", func(t *testing.T) {
		mixed := "a\nb with literal \\n kept"
		assert.Equal(t, mixed, UnescapeNewlines(mixed))
	})

	t.Run("idempotent", func(t *testing.T) {
		once := UnescapeNewlines(`line1\nline2`)
		assert.Equal(t, once, UnescapeNewlines(once))
	})

	t.Run("empty string", func(t *testing.T) {
		assert.Equal(t, "", UnescapeNewlines(""))
	})
}

func TestStripCodeFence(t *testing.T) {
	t.Run("plain fence", func(t *testing.T) {
		assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	})

	t.Run("language tag", func(t *testing.T) {
		assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	})

	t.Run("unfenced text passes through trimmed", func(t *testing.T) {
		assert.Equal(t, "hello", StripCodeFence("  hello  "))
	})

	t.Run("interior fences untouched", func(t *testing.T) {
		body := "prose with ```code``` inside"
		assert.Equal(t, body, StripCodeFence(body))
	})

	t.Run("round trip", func(t *testing.T) {
		body := "# Heading\n\nSome guidance."
		fenced := "```markdown\n" + body + "\n```"
		assert.Equal(t, body, StripCodeFence(fenced))
	})
}

func TestLooksJSONLike(t *testing.T) {
	assert.True(t, LooksJSONLike(`{"k":"v"}`))
	assert.True(t, LooksJSONLike(" [1,2] "))
	assert.False(t, LooksJSONLike("plain prose"))
	assert.False(t, LooksJSONLike("{unterminated"))
}

func TestDefaultFollowUps(t *testing.T) {
	t.Run("topic templated into each suggestion", func(t *testing.T) {
		got := DefaultFollowUps("large exposure limits")
		require.Len(t, got, 6)
		for _, s := range got {
			assert.Contains(t, s, "large exposure limits")
		}
	})

	t.Run("blank topic falls back", func(t *testing.T) {
		got := DefaultFollowUps("   ")
		require.NotEmpty(t, got)
		assert.Contains(t, got[0], "this topic")
	})
}

func TestEmpty(t *testing.T) {
	e := Empty()
	assert.Equal(t, EmptyNarrative, e.RawNarrative)
	assert.NotEmpty(t, e.FollowUpSuggestions)
}

func TestOrderedFrameworks(t *testing.T) {
	m := map[Framework]PerSourceSection{
		"Basel":                 {Notes: "x"},
		FrameworkCBB:            {Notes: "x"},
		FrameworkIFRS:           {Notes: "x"},
		FrameworkInternalPolicy: {Notes: "x"},
		"AML":                   {Notes: "x"},
	}
	got := OrderedFrameworks(m)
	assert.Equal(t, []Framework{
		FrameworkIFRS, FrameworkCBB, FrameworkInternalPolicy, "AML", "Basel",
	}, got)
}
