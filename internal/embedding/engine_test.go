package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 1}, []float32{-1, -1})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-9)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
		assert.Error(t, err)
	})

	t.Run("zero vector", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 2})
		require.NoError(t, err)
		assert.Zero(t, sim)
	})
}
