package chunk

import (
	"context"
	"testing"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/db"
	domchunk "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/chunk"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delMultiFn    func(ctx context.Context, keys []string) error
	scanFn        func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultFn != nil {
		return m.hgetAllMultFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) error {
	if m.delMultiFn != nil {
		return m.delMultiFn(ctx, keys)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

const testDocContent = "Zone 2 training improves mitochondrial function. VO2 max predicts longevity."

func testChunk(t *testing.T, index int) domchunk.Chunk {
	t.Helper()
	half := len(testDocContent) / 2
	start, end := 0, half
	if index > 0 {
		start, end = half, len(testDocContent)
	}
	c, err := domchunk.New("doc-1", index, testDocContent, start, end)
	if err != nil {
		t.Fatalf("build test chunk: %v", err)
	}
	return c
}
