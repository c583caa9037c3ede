package ingest

import (
	"context"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	domchunk "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/chunk"
	domdoc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/document"
)

// DocumentStore persists documents.
type DocumentStore interface {
	Save(ctx context.Context, doc *domdoc.Document) (bool, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

// ChunkStore persists chunks and their vectors.
type ChunkStore interface {
	SaveAll(ctx context.Context, chunks []domchunk.Chunk) error
	AttachVector(ctx context.Context, c *domchunk.Chunk) error
	ListByDocumentID(ctx context.Context, documentID string) ([]domchunk.Chunk, error)
	DeleteByDocumentID(ctx context.Context, documentID string) (int, error)
}

// BatchEmbedder vectorizes batches of texts. Embed is the single-text
// path used to retry a failed batch item by item.
type BatchEmbedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
