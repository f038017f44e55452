package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGenAIModel = "gemini-embedding-001"

// genaiDimensions is the output dimensionality of gemini-embedding-001.
const genaiDimensions = 768

// GenAIEngine produces embeddings via Google's Gemini embedding API,
// using retrieval task types: RETRIEVAL_QUERY for queries and
// RETRIEVAL_DOCUMENT for indexed content.
type GenAIEngine struct {
	client *genai.Client
	model  string
}

// NewGenAIEngine creates a Gemini embedding engine.
func NewGenAIEngine(ctx context.Context, apiKey, model string) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = defaultGenAIModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}
	return &GenAIEngine{client: client, model: model}, nil
}

// EmbedQuery embeds a search query with the retrieval-query task type.
func (e *GenAIEngine) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_QUERY")
}

// EmbedDocument embeds document content with the retrieval-document task
// type.
func (e *GenAIEngine) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (e *GenAIEngine) embed(ctx context.Context, text string, task string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
		&genai.EmbedContentConfig{TaskType: task})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// Dimensions returns the embedding dimensionality.
func (e *GenAIEngine) Dimensions() int { return genaiDimensions }

// Name identifies the engine.
func (e *GenAIEngine) Name() string { return "genai:" + e.model }

// Close closes the underlying client. The genai SDK client holds no
// resources that need explicit release, so this is a no-op.
func (e *GenAIEngine) Close() error {
	return nil
}
