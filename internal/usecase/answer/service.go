package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	domans "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/answer"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/retrieval"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/metrics"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/repository/interaction"
)

// defaultTemperature keeps answers near-deterministic.
const defaultTemperature = 0.1

// defaultSimilarLimit bounds similar-chunk lookups when the caller gives none.
const defaultSimilarLimit = 5

// Options tune generation behavior. Zero values take the defaults.
type Options struct {
	Temperature float64
}

// Service runs the retrieval pipeline: embed the question, search the chunk
// index, assemble context, generate, score confidence, extract sources.
type Service struct {
	index       Index
	embed       Embedder
	gen         Generator
	docs        DocumentReader
	log         InteractionLog
	temperature float64
	logger      *zap.Logger
}

// New creates an answer service.
func New(index Index, embed Embedder, gen Generator, docs DocumentReader, log InteractionLog, opts Options, logger *zap.Logger) *Service {
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		index:       index,
		embed:       embed,
		gen:         gen,
		docs:        docs,
		log:         log,
		temperature: opts.Temperature,
		logger:      logger,
	}
}

// Ask answers a validated query. Zero retrieval hits is a valid outcome, not
// an error: the result carries a templated message and no generation call is
// made, so the model never answers from thin air.
func (s *Service) Ask(ctx context.Context, q *domans.Query) (domans.Result, error) {
	totalStart := time.Now()
	params := q.Params()

	searchStart := time.Now()

	emb, err := s.embed.Embed(ctx, q.Question())
	if err != nil {
		return domans.Result{}, fmt.Errorf("embed question: %w: %w", domain.ErrRetrievalFailed, err)
	}

	hits, err := s.index.Search(ctx, emb.Embedding, params.MaxContextChunks, params.SimilarityThreshold)
	if err != nil {
		return domans.Result{}, fmt.Errorf("search context: %w: %w", domain.ErrRetrievalFailed, err)
	}

	searchDur := time.Since(searchStart)

	if len(hits) == 0 {
		timings := domans.Timings{Search: searchDur, Total: time.Since(totalStart)}
		result := domans.NewNoContextResult(q.Mode(), timings)

		metrics.AnswersTotal.WithLabelValues(string(q.Mode()), "no_context").Inc()
		s.logInteraction(ctx, q, &result)

		return result, nil
	}

	records := s.buildContext(ctx, hits, emb.Model)

	genStart := time.Now()

	genResult, err := s.gen.Generate(ctx, domain.GenerationRequest{
		System:      systemInstruction(q.Mode()),
		User:        userInstruction(q.Question(), records),
		Temperature: float32(s.temperature),
		MaxTokens:   maxTokensFor(q.Mode(), q.Question()),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return domans.Result{}, fmt.Errorf("generate answer: %w", err)
	}

	genDur := time.Since(genStart)

	timings := domans.Timings{
		Search:     searchDur,
		Generation: genDur,
		Total:      time.Since(totalStart),
	}
	result := domans.NewResult(
		genResult.Text,
		domans.Confidence(records),
		domans.Sources(records),
		records,
		q.Mode(),
		timings,
	)

	metrics.AnswersTotal.WithLabelValues(string(q.Mode()), "answered").Inc()
	s.logInteraction(ctx, q, &result)

	return result, nil
}

// FindSimilar returns chunks most similar to a stored chunk.
func (s *Service) FindSimilar(ctx context.Context, chunkID string, limit int, threshold float64) ([]retrieval.Hit, error) {
	if chunkID == "" {
		return nil, fmt.Errorf("%w: chunk ID is required", domain.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limit > domans.MaxContextChunks {
		limit = domans.MaxContextChunks
	}
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		return nil, fmt.Errorf("%w: similarity threshold must be at most 1", domain.ErrInvalidArgument)
	}

	hits, err := s.index.FindSimilarToChunk(ctx, chunkID, limit, threshold)
	if err != nil {
		return nil, fmt.Errorf("find similar chunks: %w", err)
	}
	return hits, nil
}

// buildContext turns hits into context records, resolving source display
// names from the owning documents. A hit embedded with a different model than
// the query is logged and kept: similarity across models is degraded, not
// meaningless, and rejecting it would hide data after a model migration.
func (s *Service) buildContext(ctx context.Context, hits []retrieval.Hit, queryModel string) []domans.ContextRecord {
	names := make(map[string]string, len(hits))
	records := make([]domans.ContextRecord, 0, len(hits))

	for i := range hits {
		h := &hits[i]

		if h.EmbeddingModel() != "" && queryModel != "" && h.EmbeddingModel() != queryModel {
			s.logger.Warn("context chunk embedded with a different model",
				zap.String("chunk_id", h.ChunkID()),
				zap.String("chunk_model", h.EmbeddingModel()),
				zap.String("query_model", queryModel))
		}

		source, ok := names[h.DocumentID()]
		if !ok {
			source = s.resolveSource(ctx, h.DocumentID())
			names[h.DocumentID()] = source
		}

		records = append(records, domans.NewContextRecord(
			h.Content(), h.Similarity(), source, h.DocumentID(), h.ChunkIndex(),
		))
	}

	return records
}

func (s *Service) resolveSource(ctx context.Context, documentID string) string {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		s.logger.Warn("resolve source name failed",
			zap.String("document_id", documentID),
			zap.Error(err))
		return documentID
	}
	return doc.Name()
}

// logInteraction appends to the interaction log, best-effort: a log failure
// never fails the answer.
func (s *Service) logInteraction(ctx context.Context, q *domans.Query, r *domans.Result) {
	if s.log == nil {
		return
	}

	rec := &interaction.Record{
		Question:     q.Question(),
		Mode:         string(q.Mode()),
		Answered:     !r.NoContext(),
		Confidence:   r.Confidence(),
		Sources:      r.Sources(),
		ContextUsed:  r.ContextUsed(),
		UserID:       q.UserID(),
		SearchMs:     r.Timings().Search.Milliseconds(),
		GenerationMs: r.Timings().Generation.Milliseconds(),
		TotalMs:      r.Timings().Total.Milliseconds(),
	}

	if err := s.log.Append(ctx, rec); err != nil {
		s.logger.Warn("interaction log append failed", zap.Error(err))
	}
}
