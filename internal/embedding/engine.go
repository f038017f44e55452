// Package embedding generates vector embeddings for the document index.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Engine generates vector embeddings for text. Queries and documents use
// distinct task types so retrieval-tuned models embed them asymmetrically.
type Engine interface {
	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocument embeds a document chunk for indexing.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimensionality of produced vectors.
	Dimensions() int

	// Name identifies the engine for logging.
	Name() string

	// Close releases any underlying client resources.
	Close() error
}

// CosineSimilarity computes the cosine similarity of two vectors.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
