package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	domchunk "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/chunk"
	domdoc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/document"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/retrieval"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/repository/interaction"
	answeruc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/answer"
	healthuc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/health"
	ingestuc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/ingest"
	statsuc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/usecase/stats"
)

// --- In-memory collaborators ---

type fakeDocs struct {
	docs map[string]domdoc.Document
}

func newFakeDocs() *fakeDocs { return &fakeDocs{docs: make(map[string]domdoc.Document)} }

func (f *fakeDocs) Save(_ context.Context, doc *domdoc.Document) (bool, error) {
	_, exists := f.docs[doc.ID()]
	f.docs[doc.ID()] = *doc
	return !exists, nil
}

func (f *fakeDocs) Get(_ context.Context, id string) (domdoc.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(f.docs, id)
	return nil
}

type fakeChunks struct {
	byDoc map[string][]domchunk.Chunk
}

func newFakeChunks() *fakeChunks { return &fakeChunks{byDoc: make(map[string][]domchunk.Chunk)} }

func (f *fakeChunks) SaveAll(_ context.Context, chunks []domchunk.Chunk) error {
	for _, c := range chunks {
		f.byDoc[c.DocumentID()] = append(f.byDoc[c.DocumentID()], c)
	}
	return nil
}

func (f *fakeChunks) AttachVector(_ context.Context, _ *domchunk.Chunk) error { return nil }

func (f *fakeChunks) ListByDocumentID(_ context.Context, documentID string) ([]domchunk.Chunk, error) {
	return f.byDoc[documentID], nil
}

func (f *fakeChunks) DeleteByDocumentID(_ context.Context, documentID string) (int, error) {
	n := len(f.byDoc[documentID])
	delete(f.byDoc, documentID)
	return n, nil
}

type fakeBatchEmbedder struct{}

func (fakeBatchEmbedder) EmbedBatch(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return domain.BatchEmbeddingResult{Embeddings: vecs, Model: "text-embedding-3-small"}, nil
}

func (fakeBatchEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, Model: "text-embedding-3-small"}, nil
}

type fakeIndex struct {
	hits []retrieval.Hit
	err  error
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, _ int, _ float64) ([]retrieval.Hit, error) {
	return f.hits, f.err
}

func (f *fakeIndex) FindSimilarToChunk(_ context.Context, _ string, _ int, _ float64) ([]retrieval.Hit, error) {
	return f.hits, f.err
}

func (f *fakeIndex) CountIndexed(_ context.Context) (int, error) {
	return len(f.hits), f.err
}

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, Model: "text-embedding-3-small"}, nil
}

type fakeGenerator struct{ err error }

func (f *fakeGenerator) Generate(_ context.Context, _ domain.GenerationRequest) (domain.GenerationResult, error) {
	if f.err != nil {
		return domain.GenerationResult{}, f.err
	}
	return domain.GenerationResult{Text: "Zone 2 builds aerobic base.", Model: "gpt-4o-mini"}, nil
}

type fakeInteractions struct{ appended int64 }

func (f *fakeInteractions) Append(_ context.Context, _ *interaction.Record) error {
	f.appended++
	return nil
}

func (f *fakeInteractions) Count(_ context.Context) (int64, error) { return f.appended, nil }

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

type fakeChecker struct{ err error }

func (f *fakeChecker) HealthCheck(_ context.Context) error { return f.err }

type serverMocks struct {
	docs   *fakeDocs
	chunks *fakeChunks
	index  *fakeIndex
	gen    *fakeGenerator
	embed  *fakeEmbedder
	pinger *fakePinger
}

func newTestRouter(t *testing.T) (http.Handler, *serverMocks) {
	t.Helper()

	m := &serverMocks{
		docs:   newFakeDocs(),
		chunks: newFakeChunks(),
		index:  &fakeIndex{},
		gen:    &fakeGenerator{},
		embed:  &fakeEmbedder{},
		pinger: &fakePinger{},
	}

	logger := zap.NewNop()
	ingestSvc := ingestuc.New(m.docs, m.chunks, fakeBatchEmbedder{}, ingestuc.Options{
		MaxChunkSize: 200,
		ChunkOverlap: 40,
		BatchSize:    10,
		BatchDelay:   1,
	}, logger)
	interactions := &fakeInteractions{}
	answerSvc := answeruc.New(m.index, m.embed, m.gen, m.docs, interactions, answeruc.Options{}, logger)
	healthSvc := healthuc.New(m.pinger, &fakeChecker{}, &fakeChecker{})
	statsSvc := statsuc.New(interactions, m.index)

	server := NewServer(ingestSvc, answerSvc, healthSvc, statsSvc, logger)
	r := chirouter.NewRouter()
	server.Routes(r)
	return r, m
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestIngestDocument_Created(t *testing.T) {
	h, _ := newTestRouter(t)

	content := strings.Repeat("Zone 2 training improves mitochondrial function over long horizons. ", 6)
	rr := doJSON(t, h, "POST", "/documents", map[string]string{
		"name":    "longevity-guide.pdf",
		"content": content,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp ingestResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DocumentID != "longevity-guide" {
		t.Errorf("DocumentID = %q, want derived from filename", resp.DocumentID)
	}
	if !resp.Created {
		t.Error("Created = false")
	}
	if resp.ChunkCount == 0 {
		t.Error("ChunkCount = 0")
	}
	if resp.EmbeddedCount != resp.ChunkCount {
		t.Errorf("EmbeddedCount = %d, want %d", resp.EmbeddedCount, resp.ChunkCount)
	}
	if loc := rr.Header().Get("Location"); loc != "/documents/longevity-guide" {
		t.Errorf("Location = %q", loc)
	}
}

func TestIngestDocument_EmptyContent_400(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doJSON(t, h, "POST", "/documents", map[string]string{
		"id":      "doc-1",
		"name":    "empty.txt",
		"content": "",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestIngestDocument_InvalidBody_400(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/documents", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetDocument(t *testing.T) {
	h, _ := newTestRouter(t)

	content := strings.Repeat("Zone 2 training improves mitochondrial function over long horizons. ", 6)
	doJSON(t, h, "POST", "/documents", map[string]string{
		"id": "doc-1", "name": "guide.pdf", "content": content,
	})

	rr := doJSON(t, h, "GET", "/documents/doc-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var resp documentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "doc-1" || resp.Name != "guide.pdf" {
		t.Errorf("doc = %+v", resp)
	}
	if resp.SourceType != "pdf" {
		t.Errorf("SourceType = %q, want pdf", resp.SourceType)
	}
	if resp.ChunkCount == 0 {
		t.Error("ChunkCount = 0")
	}
}

func TestGetDocument_NotFound_404(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doJSON(t, h, "GET", "/documents/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeDocumentNotFound {
		t.Errorf("code = %q, want %q", errResp.Code, codeDocumentNotFound)
	}
}

func TestDeleteDocument(t *testing.T) {
	h, _ := newTestRouter(t)

	content := strings.Repeat("Zone 2 training improves mitochondrial function over long horizons. ", 6)
	doJSON(t, h, "POST", "/documents", map[string]string{
		"id": "doc-1", "name": "guide.pdf", "content": content,
	})

	rr := doJSON(t, h, "DELETE", "/documents/doc-1", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}

	rr = doJSON(t, h, "GET", "/documents/doc-1", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAsk_Answered(t *testing.T) {
	h, m := newTestRouter(t)

	m.docs.docs["doc-1"] = mustDocument(t, "doc-1", "guide.pdf")
	m.index.hits = []retrieval.Hit{
		retrieval.New("doc-1:0", "doc-1", 0, "Zone 2 training keeps lactate low and builds endurance.", 0.9, "text-embedding-3-small"),
	}

	rr := doJSON(t, h, "POST", "/ask", map[string]any{
		"question": "What is zone 2 training?",
		"mode":     "quick",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Answer          string   `json:"answer"`
		Confidence      float64  `json:"confidence"`
		ConfidenceLevel string   `json:"confidence_level"`
		Sources         []string `json:"sources"`
		RawSources      []string `json:"raw_sources"`
		ContextUsed     int      `json:"context_used"`
		Timings         struct {
			TotalMs int64 `json:"total_ms"`
		} `json:"timings"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Answer != "Zone 2 builds aerobic base." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.ContextUsed != 1 {
		t.Errorf("context_used = %d", resp.ContextUsed)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "guide" {
		t.Errorf("sources = %v, want normalized [guide]", resp.Sources)
	}
	if len(resp.RawSources) != 1 || resp.RawSources[0] != "guide.pdf" {
		t.Errorf("raw_sources = %v", resp.RawSources)
	}
	if resp.Confidence <= 0 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
}

func TestAsk_NoContext_200(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doJSON(t, h, "POST", "/ask", map[string]any{"question": "What about rucking?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (no context is not an error)", rr.Code, http.StatusOK)
	}

	var resp struct {
		Confidence  float64 `json:"confidence"`
		ContextUsed int     `json:"context_used"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Confidence != 0 || resp.ContextUsed != 0 {
		t.Errorf("confidence = %v, context_used = %d, want zeros", resp.Confidence, resp.ContextUsed)
	}
}

func TestAsk_MissingQuestion_400(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doJSON(t, h, "POST", "/ask", map[string]any{"mode": "quick"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAsk_InvalidMode_400(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doJSON(t, h, "POST", "/ask", map[string]any{"question": "What?", "mode": "verbose"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAsk_GenerationFailure_502(t *testing.T) {
	h, m := newTestRouter(t)

	m.docs.docs["doc-1"] = mustDocument(t, "doc-1", "guide.pdf")
	m.index.hits = []retrieval.Hit{
		retrieval.New("doc-1:0", "doc-1", 0, "context", 0.9, "text-embedding-3-small"),
	}
	m.gen.err = domain.ErrGenerationFailed

	rr := doJSON(t, h, "POST", "/ask", map[string]any{"question": "What is zone 2?"})
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeGenerationFailed {
		t.Errorf("code = %q, want %q", errResp.Code, codeGenerationFailed)
	}
}

func TestAsk_EmbeddingFailure_502(t *testing.T) {
	h, m := newTestRouter(t)

	m.embed.err = errors.New("provider down")

	rr := doJSON(t, h, "POST", "/ask", map[string]any{"question": "What is zone 2?"})
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestSimilarChunks(t *testing.T) {
	h, m := newTestRouter(t)

	m.index.hits = []retrieval.Hit{
		retrieval.New("doc-1:1", "doc-1", 1, "neighboring chunk", 0.82, "text-embedding-3-small"),
	}

	rr := doJSON(t, h, "POST", "/chunks/doc-1:0/similar", map[string]any{"limit": 3})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var resp similarResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].ChunkID != "doc-1:1" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Items[0].Similarity != 0.82 {
		t.Errorf("similarity = %v", resp.Items[0].Similarity)
	}
}

func TestSimilarChunks_NotEmbedded_409(t *testing.T) {
	h, m := newTestRouter(t)

	m.index.err = domain.ErrChunkNotEmbedded

	rr := doJSON(t, h, "POST", "/chunks/doc-1:0/similar", map[string]any{})
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestHealth_OK(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doJSON(t, h, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestHealth_Degraded_503(t *testing.T) {
	h, m := newTestRouter(t)

	m.pinger.err = errors.New("conn refused")

	rr := doJSON(t, h, "GET", "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestStats(t *testing.T) {
	h, m := newTestRouter(t)

	m.docs.docs["doc-1"] = mustDocument(t, "doc-1", "guide.pdf")
	m.index.hits = []retrieval.Hit{
		retrieval.New("doc-1:0", "doc-1", 0, "Zone 2 training keeps lactate low.", 0.9, "text-embedding-3-small"),
		retrieval.New("doc-1:1", "doc-1", 1, "Lactate stays below 2 mmol.", 0.8, "text-embedding-3-small"),
	}

	// One answered question lands in the interaction log.
	if rr := doJSON(t, h, "POST", "/ask", map[string]any{"question": "What is zone 2?"}); rr.Code != http.StatusOK {
		t.Fatalf("ask status = %d", rr.Code)
	}

	rr := doJSON(t, h, "GET", "/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp statsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Interactions != 1 {
		t.Errorf("interactions = %d, want 1", resp.Interactions)
	}
	if resp.IndexedChunks != 2 {
		t.Errorf("indexed_chunks = %d, want 2", resp.IndexedChunks)
	}
}

func TestDocumentIDFromName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Longevity Guide.pdf", "longevity-guide"},
		{"notes.md", "notes"},
		{"A  B!!.txt", "a-b"},
	}
	for _, tc := range cases {
		if got := documentIDFromName(tc.name); got != tc.want {
			t.Errorf("documentIDFromName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func mustDocument(t *testing.T, id, name string) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(id, name, "Zone 2 training improves mitochondrial function.", domdoc.Metadata{})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}
