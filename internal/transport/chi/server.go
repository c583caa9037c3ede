// Package chi exposes the REST surface: document ingestion, question
// answering, chunk similarity, health, stats.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	domans "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/answer"
	domdoc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/document"
	answeruc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/answer"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/format"
	healthuc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/health"
	ingestuc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/ingest"
	statsuc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/stats"
)

// Error codes returned in the response body.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeDocumentNotFound   = "document_not_found"
	codeChunkNotFound      = "chunk_not_found"
	codeChunkNotEmbedded   = "chunk_not_embedded"
	codeRetrievalFailed    = "retrieval_failed"
	codeGenerationFailed   = "generation_failed"
	codeUpstreamModelError = "upstream_model_error"
	codeInternalError      = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	ingest        *ingestuc.Service
	answer        *answeruc.Service
	health        *healthuc.Service
	stats         *statsuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service, answer *answeruc.Service,
	health *healthuc.Service, stats *statsuc.Service, logger *zap.Logger,
) *Server {
	s := &Server{
		ingest: ingest,
		answer: answer,
		health: health,
		stats:  stats,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrChunkNotFound, http.StatusNotFound, codeChunkNotFound),
		sentinelHandler(domain.ErrChunkNotEmbedded, http.StatusConflict, codeChunkNotEmbedded),
		sentinelHandler(domain.ErrRetrievalFailed, http.StatusBadGateway, codeRetrievalFailed),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, codeGenerationFailed),
		sentinelHandler(domain.ErrEmbeddingCountMismatch, http.StatusBadGateway, codeUpstreamModelError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeUpstreamModelError),
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/documents", s.IngestDocument)
	r.Get("/documents/{id}", s.GetDocument)
	r.Delete("/documents/{id}", s.DeleteDocument)
	r.Post("/ask", s.Ask)
	r.Post("/chunks/{id}/similar", s.SimilarChunks)
	r.Get("/health", s.HealthCheck)
	r.Get("/stats", s.Stats)
	r.Get("/metrics", s.Metrics)
}

type ingestRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

type ingestResponse struct {
	DocumentID    string `json:"document_id"`
	Created       bool   `json:"created"`
	ChunkCount    int    `json:"chunk_count"`
	EmbeddedCount int    `json:"embedded_count"`
	FailedCount   int    `json:"failed_count"`
}

// IngestDocument handles POST /documents.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id := req.ID
	if id == "" {
		id = documentIDFromName(req.Name)
	}

	meta := domdoc.Metadata{
		WordCount:  len(strings.Fields(req.Content)),
		SourceType: sourceType(req.Name),
	}

	report, err := s.ingest.Ingest(r.Context(), id, req.Name, req.Content, meta)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if report.Created {
		status = http.StatusCreated
		w.Header().Set("Location", "/documents/"+report.DocumentID)
	}

	writeJSON(w, status, ingestResponse{
		DocumentID:    report.DocumentID,
		Created:       report.Created,
		ChunkCount:    report.ChunkCount,
		EmbeddedCount: report.EmbeddedCount,
		FailedCount:   report.FailedCount,
	})
}

type documentResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	WordCount     int       `json:"word_count"`
	SourceType    string    `json:"source_type,omitempty"`
	ChunkCount    int       `json:"chunk_count"`
	EmbeddedCount int       `json:"embedded_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, err := s.ingest.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	doc := &info.Document
	writeJSON(w, http.StatusOK, documentResponse{
		ID:            doc.ID(),
		Name:          doc.Name(),
		WordCount:     doc.Meta().WordCount,
		SourceType:    doc.Meta().SourceType,
		ChunkCount:    info.ChunkCount,
		EmbeddedCount: info.EmbeddedCount,
		CreatedAt:     doc.CreatedAt().UTC(),
		UpdatedAt:     doc.UpdatedAt().UTC(),
	})
}

// DeleteDocument handles DELETE /documents/{id}. Chunks cascade.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.ingest.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type askRequest struct {
	Question            string   `json:"question"`
	Mode                string   `json:"mode"`
	MaxContextChunks    int      `json:"max_context_chunks"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	UserID              string   `json:"user_id"`
}

type timingsResponse struct {
	SearchMs     int64 `json:"search_ms"`
	GenerationMs int64 `json:"generation_ms"`
	TotalMs      int64 `json:"total_ms"`
}

type askResponse struct {
	format.Answer
	RawSources []string        `json:"raw_sources,omitempty"`
	Timings    timingsResponse `json:"timings"`
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	mode := domans.Auto
	if req.Mode != "" {
		mode = domans.Mode(req.Mode)
	}

	// Absent threshold means "use the mode default"; an explicit 0 is a
	// legal override that disables filtering.
	threshold := -1.0
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}

	q, err := domans.NewQuery(req.Question, mode, req.MaxContextChunks, threshold, req.UserID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	result, err := s.answer.Ask(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:     format.Render(req.Question, &result),
		RawSources: result.Sources(),
		Timings: timingsResponse{
			SearchMs:     result.Timings().Search.Milliseconds(),
			GenerationMs: result.Timings().Generation.Milliseconds(),
			TotalMs:      result.Timings().Total.Milliseconds(),
		},
	})
}

type similarRequest struct {
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
}

type similarChunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type similarResponse struct {
	Items []similarChunk `json:"items"`
	Total int            `json:"total"`
}

// SimilarChunks handles POST /chunks/{id}/similar.
func (s *Server) SimilarChunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req := similarRequest{Threshold: -1}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	hits, err := s.answer.FindSimilar(r.Context(), id, req.Limit, req.Threshold)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]similarChunk, len(hits))
	for i := range hits {
		h := &hits[i]
		items[i] = similarChunk{
			ChunkID:    h.ChunkID(),
			DocumentID: h.DocumentID(),
			ChunkIndex: h.ChunkIndex(),
			Content:    h.Content(),
			Similarity: h.Similarity(),
		}
	}

	writeJSON(w, http.StatusOK, similarResponse{Items: items, Total: len(items)})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

type statsResponse struct {
	Interactions  int64 `json:"interactions"`
	IndexedChunks int   `json:"indexed_chunks"`
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	report, err := s.stats.Overview(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Interactions:  report.Interactions,
		IndexedChunks: report.IndexedChunks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// documentIDFromName derives a stable document ID from a filename.
func documentIDFromName(name string) string {
	base := strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))
	fields := strings.FieldsFunc(base, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(fields, "-")
}

func sourceType(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrDocumentNotFound,
		domain.ErrChunkNotFound,
		domain.ErrChunkNotEmbedded,
		domain.ErrRetrievalFailed,
		domain.ErrGenerationFailed,
		domain.ErrEmbeddingCountMismatch,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
