package answer

import (
	"context"
	"testing"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	domans "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/answer"
	domdoc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/document"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/retrieval"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/repository/interaction"
)

type mockIndex struct {
	searchFn  func(ctx context.Context, vector []float32, limit int, threshold float64) ([]retrieval.Hit, error)
	similarFn func(ctx context.Context, chunkID string, limit int, threshold float64) ([]retrieval.Hit, error)
}

func (m *mockIndex) Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]retrieval.Hit, error) {
	return m.searchFn(ctx, vector, limit, threshold)
}

func (m *mockIndex) FindSimilarToChunk(ctx context.Context, chunkID string, limit int, threshold float64) ([]retrieval.Hit, error) {
	return m.similarFn(ctx, chunkID, limit, threshold)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

type mockGenerator struct {
	calls      int
	lastReq    domain.GenerationRequest
	generateFn func(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	m.calls++
	m.lastReq = req
	return m.generateFn(ctx, req)
}

type mockDocs struct {
	calls int
	getFn func(ctx context.Context, id string) (domdoc.Document, error)
}

func (m *mockDocs) Get(ctx context.Context, id string) (domdoc.Document, error) {
	m.calls++
	return m.getFn(ctx, id)
}

type mockLog struct {
	records  []*interaction.Record
	appendFn func(ctx context.Context, rec *interaction.Record) error
}

func (m *mockLog) Append(ctx context.Context, rec *interaction.Record) error {
	m.records = append(m.records, rec)
	if m.appendFn != nil {
		return m.appendFn(ctx, rec)
	}
	return nil
}

type testMocks struct {
	index *mockIndex
	embed *mockEmbedder
	gen   *mockGenerator
	docs  *mockDocs
	log   *mockLog
}

func newTestService(t *testing.T) (*Service, *testMocks) {
	t.Helper()

	m := &testMocks{
		index: &mockIndex{},
		embed: &mockEmbedder{
			embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
				return domain.EmbeddingResult{
					Embedding: []float32{0.1, 0.2, 0.3},
					Model:     "text-embedding-3-small",
				}, nil
			},
		},
		gen: &mockGenerator{
			generateFn: func(_ context.Context, _ domain.GenerationRequest) (domain.GenerationResult, error) {
				return domain.GenerationResult{Text: "Zone 2 training builds aerobic base.", Model: "gpt-4o-mini"}, nil
			},
		},
		docs: &mockDocs{
			getFn: func(_ context.Context, id string) (domdoc.Document, error) {
				return testDocument(t, id, id+".pdf"), nil
			},
		},
		log: &mockLog{},
	}

	return New(m.index, m.embed, m.gen, m.docs, m.log, Options{}, nil), m
}

func testDocument(t *testing.T, id, name string) domdoc.Document {
	t.Helper()

	doc, err := domdoc.New(id, name, "Zone 2 training improves mitochondrial function.", domdoc.Metadata{
		WordCount:  6,
		SourceType: "pdf",
	})
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func testQuery(t *testing.T, question string, mode domans.Mode) *domans.Query {
	t.Helper()

	q, err := domans.NewQuery(question, mode, 0, -1, "user-1")
	if err != nil {
		t.Fatalf("new query: %v", err)
	}
	return &q
}

func testHit(t *testing.T, chunkID, documentID string, index int, content string, similarity float64) retrieval.Hit {
	t.Helper()
	return retrieval.New(chunkID, documentID, index, content, similarity, "text-embedding-3-small")
}
