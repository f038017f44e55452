package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regulaite/internal/answer"
	"regulaite/internal/router"
)

func TestBudgets(t *testing.T) {
	t.Run("defaults are monotonic", func(t *testing.T) {
		b := DefaultBudgets()
		assert.GreaterOrEqual(t, b.Long, b.Short)
		assert.GreaterOrEqual(t, b.Research, b.Long)
	})

	t.Run("normalize fills zeros", func(t *testing.T) {
		b := Budgets{Long: 3000}.Normalize()
		assert.Equal(t, DefaultBudgets().Short, b.Short)
		assert.Equal(t, 3000, b.Long)
		assert.Equal(t, DefaultBudgets().Research, b.Research)
	})

	t.Run("normalize restores monotonicity", func(t *testing.T) {
		b := Budgets{Short: 2000, Long: 1000, Research: 500}.Normalize()
		assert.GreaterOrEqual(t, b.Long, b.Short)
		assert.GreaterOrEqual(t, b.Research, b.Long)
	})

	t.Run("for mode", func(t *testing.T) {
		b := DefaultBudgets()
		assert.Equal(t, b.Short, b.For(router.ModeShort))
		assert.Equal(t, b.Long, b.For(router.ModeLong))
		assert.Equal(t, b.Research, b.For(router.ModeResearch))
		// ModeAuto should never reach budgeting; it falls back to long.
		assert.Equal(t, b.Long, b.For(router.ModeAuto))
	})
}

func TestBuild(t *testing.T) {
	t.Run("block order and content", func(t *testing.T) {
		blocks := Build(router.ModeLong, router.IntentTags{}, true, 8)
		require.GreaterOrEqual(t, len(blocks), 4)

		joined := strings.Join(blocks, "\n\n")
		assert.Contains(t, joined, "RegulAIte")
		assert.Contains(t, joined, "Mode: LONG")
		assert.Contains(t, joined, "Evidence mode is ON")
		assert.Contains(t, joined, "top-K retrieval hint: 8")
		assert.Contains(t, joined, answer.FieldRawMarkdown)
	})

	t.Run("each mode gets its addendum", func(t *testing.T) {
		short := strings.Join(Build(router.ModeShort, router.IntentTags{}, false, 0), "\n")
		research := strings.Join(Build(router.ModeResearch, router.IntentTags{}, false, 0), "\n")
		assert.Contains(t, short, "Mode: SHORT")
		assert.Contains(t, research, "Mode: RESEARCH")
	})

	t.Run("strict citation addendum wins over scenario", func(t *testing.T) {
		blocks := Build(router.ModeLong, router.IntentTags{StrictCitation: true, Scenario: true}, false, 0)
		joined := strings.Join(blocks, "\n")
		assert.Contains(t, joined, "not found")
		assert.NotContains(t, joined, scenarioAddendum)
	})

	t.Run("evidence off directive", func(t *testing.T) {
		joined := strings.Join(Build(router.ModeLong, router.IntentTags{}, false, 0), "\n")
		assert.Contains(t, joined, "Evidence mode is OFF")
	})
}

func TestSchemaDirective(t *testing.T) {
	d := SchemaDirective()
	for _, field := range []string{
		answer.FieldRawMarkdown,
		answer.FieldSummary,
		answer.FieldPerSource,
		answer.FieldComparisonTable,
		answer.FieldCitations,
		answer.FieldFollowUps,
	} {
		assert.Contains(t, d, field)
	}
}

func TestWithStrictJSONRetry(t *testing.T) {
	blocks := Build(router.ModeShort, router.IntentTags{}, false, 0)
	retry := WithStrictJSONRetry(blocks)

	assert.Len(t, retry, len(blocks)+1)
	assert.Contains(t, retry[len(retry)-1], "JSON")
	// Original slice untouched.
	assert.NotContains(t, strings.Join(blocks, "\n"), retry[len(retry)-1])
}
