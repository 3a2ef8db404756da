// Package gemini provides Gemini-backed implementations of the model-facing
// services: embeddings, token counting, and relevance reranking.
package gemini

import (
	"context"

	"github.com/fwojciec/docsearch"
	"google.golang.org/genai"
)

// DefaultEmbeddingModel is the embedding model used for the semantic index.
const DefaultEmbeddingModel = "gemini-embedding-001"

// DefaultDimensions is the embedding dimensionality requested from the model.
const DefaultDimensions = 768

// Ensure Embedder implements docsearch.Embedder at compile time.
var _ docsearch.Embedder = (*Embedder)(nil)

// Embedder converts text into embedding vectors using the Gemini API.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(client *genai.Client) *Embedder {
	return &Embedder{
		client:     client,
		model:      DefaultEmbeddingModel,
		dimensions: DefaultDimensions,
	}
}

// EmbedBatch embeds the given texts, returning one vector per input in the
// same order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dims := int32(e.dimensions)
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, docsearch.Errorf(docsearch.EINTERNAL, "embedding count mismatch: got %d for %d texts", embeddingCount(result), len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, docsearch.Errorf(docsearch.EINTERNAL, "empty embedding at position %d", i)
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}

// Dimensions returns the embedding dimensionality.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func embeddingCount(r *genai.EmbedContentResponse) int {
	if r == nil {
		return 0
	}
	return len(r.Embeddings)
}
