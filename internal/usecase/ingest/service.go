package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/chunker"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	domchunk "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/chunk"
	domdoc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/document"
)

const (
	defaultBatchSize  = 10
	defaultBatchDelay = 100 * time.Millisecond
)

// Options configure chunking and embedding behavior.
type Options struct {
	MaxChunkSize int
	ChunkOverlap int
	BatchSize    int           // texts per embedding request
	BatchDelay   time.Duration // pause between batches
}

// Report summarizes one ingestion run.
type Report struct {
	DocumentID    string
	Created       bool
	ChunkCount    int
	EmbeddedCount int
	FailedCount   int
}

// DocumentInfo is a stored document with its chunk stats.
type DocumentInfo struct {
	Document      domdoc.Document
	ChunkCount    int
	EmbeddedCount int
}

// Service ingests documents: chunk, persist, embed in batches.
type Service struct {
	docs   DocumentStore
	chunks ChunkStore
	embed  BatchEmbedder
	opts   Options
	logger *zap.Logger
}

// New creates an ingest service.
func New(docs DocumentStore, chunks ChunkStore, embed BatchEmbedder, opts Options, logger *zap.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = defaultBatchDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{docs: docs, chunks: chunks, embed: embed, opts: opts, logger: logger}
}

// Ingest stores a document, splits it into chunks and embeds them in batches.
// A batch that fails to embed is retried text by text; a batch that still
// fails is counted and skipped, and the run continues so one provider hiccup
// cannot void an entire document. Re-ingesting deletes the old
// chunks first: chunk content is derived state and is never patched in place.
func (s *Service) Ingest(ctx context.Context, id, name, content string, meta domdoc.Metadata) (*Report, error) {
	doc, err := domdoc.New(id, name, content, meta)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	removed, err := s.chunks.DeleteByDocumentID(ctx, doc.ID())
	if err != nil {
		return nil, fmt.Errorf("drop stale chunks: %w", err)
	}
	if removed > 0 {
		s.logger.Info("replaced existing chunks",
			zap.String("document_id", doc.ID()),
			zap.Int("removed", removed))
	}

	created, err := s.docs.Save(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	pieces := chunker.Chunk(content, chunker.Options{
		MaxChunkSize: s.opts.MaxChunkSize,
		Overlap:      s.opts.ChunkOverlap,
	})

	chunks := make([]domchunk.Chunk, 0, len(pieces))
	for i, p := range pieces {
		c, err := domchunk.New(doc.ID(), i, content, p.Start, p.End)
		if err != nil {
			return nil, fmt.Errorf("build chunk %d: %w", i, err)
		}
		chunks = append(chunks, c)
	}

	if err := s.chunks.SaveAll(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	embedded, failed := s.embedAll(ctx, chunks)

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID()),
		zap.Int("chunks", len(chunks)),
		zap.Int("embedded", embedded),
		zap.Int("failed", failed))

	return &Report{
		DocumentID:    doc.ID(),
		Created:       created,
		ChunkCount:    len(chunks),
		EmbeddedCount: embedded,
		FailedCount:   failed,
	}, nil
}

// embedAll embeds chunks in fixed-size batches with a pause between batches.
func (s *Service) embedAll(ctx context.Context, chunks []domchunk.Chunk) (embedded, failed int) {
	for start := 0; start < len(chunks); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(chunks))
		batch := chunks[start:end]

		if start > 0 {
			select {
			case <-time.After(s.opts.BatchDelay):
			case <-ctx.Done():
				failed += len(chunks) - start
				return embedded, failed
			}
		}

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content()
		}

		result, err := s.embed.EmbedBatch(ctx, texts)
		if err != nil {
			s.logger.Warn("embedding batch failed, retrying texts one by one",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			result, err = domain.EmbedBatchFallback(ctx, s.embed, texts)
		}
		if err != nil {
			s.logger.Warn("embedding batch retry failed",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			failed += len(batch)
			continue
		}

		for i := range batch {
			c, err := batch[i].WithEmbedding(result.Embeddings[i], result.Model)
			if err != nil {
				s.logger.Warn("attach embedding failed",
					zap.String("chunk_id", batch[i].ID()),
					zap.Error(err))
				failed++
				continue
			}
			if err := s.chunks.AttachVector(ctx, &c); err != nil {
				s.logger.Warn("store vector failed",
					zap.String("chunk_id", c.ID()),
					zap.Error(err))
				failed++
				continue
			}
			embedded++
		}
	}

	return embedded, failed
}

// Get returns a document with its chunk stats.
func (s *Service) Get(ctx context.Context, id string) (*DocumentInfo, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	chunks, err := s.chunks.ListByDocumentID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	embedded := 0
	for i := range chunks {
		if chunks[i].Embedded() {
			embedded++
		}
	}

	return &DocumentInfo{
		Document:      doc,
		ChunkCount:    len(chunks),
		EmbeddedCount: embedded,
	}, nil
}

// Delete removes a document and all of its chunks.
func (s *Service) Delete(ctx context.Context, id string) (int, error) {
	if err := s.docs.Delete(ctx, id); err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}

	removed, err := s.chunks.DeleteByDocumentID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}

	s.logger.Info("document deleted",
		zap.String("document_id", id),
		zap.Int("chunks_removed", removed))

	return removed, nil
}
