package stats

import (
	"context"
	"errors"
	"testing"
)

type mockInteractions struct {
	countFn func(ctx context.Context) (int64, error)
}

func (m *mockInteractions) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockIndex struct {
	countFn func(ctx context.Context) (int, error)
}

func (m *mockIndex) CountIndexed(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func TestOverview(t *testing.T) {
	log := &mockInteractions{countFn: func(_ context.Context) (int64, error) { return 12, nil }}
	index := &mockIndex{countFn: func(_ context.Context) (int, error) { return 340, nil }}

	report, err := New(log, index).Overview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Interactions != 12 {
		t.Errorf("Interactions = %d, want 12", report.Interactions)
	}
	if report.IndexedChunks != 340 {
		t.Errorf("IndexedChunks = %d, want 340", report.IndexedChunks)
	}
}

func TestOverview_InteractionCountError(t *testing.T) {
	log := &mockInteractions{countFn: func(_ context.Context) (int64, error) {
		return 0, errors.New("redis down")
	}}

	if _, err := New(log, &mockIndex{}).Overview(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestOverview_IndexCountError(t *testing.T) {
	index := &mockIndex{countFn: func(_ context.Context) (int, error) {
		return 0, errors.New("index dropped")
	}}

	if _, err := New(&mockInteractions{}, index).Overview(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
