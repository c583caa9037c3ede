package answer

import (
	"context"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	domdoc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/document"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/retrieval"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/repository/interaction"
)

// Index runs KNN queries over the chunk index.
type Index interface {
	Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]retrieval.Hit, error)
	FindSimilarToChunk(ctx context.Context, chunkID string, limit int, threshold float64) ([]retrieval.Hit, error)
}

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator produces the answer text from the assembled prompt.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// DocumentReader resolves source display names.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

// InteractionLog records answered questions, best-effort.
type InteractionLog interface {
	Append(ctx context.Context, rec *interaction.Record) error
}
