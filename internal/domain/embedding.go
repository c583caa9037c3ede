package domain

import (
	"context"
	"fmt"
	"math"
)

// KeyPrefix namespaces every key this service writes to the store.
// Overridden from config at startup.
var KeyPrefix = "attiarag:"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
// Implementations must return exactly one vector per input, in input order,
// or fail with ErrEmbeddingCountMismatch — never a partial result.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries an embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	Model        string
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries one vector per submitted text plus aggregate usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	Model        string
	PromptTokens int
	TotalTokens  int
}

// EmbedBatchFallback calls Embed once per text. Safety net for providers
// without native batching.
func EmbedBatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var model string
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		model = res.Model
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		Model:        model,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|) in [-1, 1].
// Returns 0 for mismatched lengths or zero-norm vectors instead of
// dividing by zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
