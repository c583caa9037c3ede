package interaction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
)

// store is the consumer interface for the interaction log (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...string) error
	LLen(ctx context.Context, key string) (int64, error)
}

// Record is one answered question, kept for offline analysis.
type Record struct {
	Question     string    `json:"question"`
	Mode         string    `json:"mode"`
	Answered     bool      `json:"answered"`
	Confidence   float64   `json:"confidence"`
	Sources      []string  `json:"sources,omitempty"`
	ContextUsed  int       `json:"context_used"`
	UserID       string    `json:"user_id,omitempty"`
	SearchMs     int64     `json:"search_ms"`
	GenerationMs int64     `json:"generation_ms"`
	TotalMs      int64     `json:"total_ms"`
	AskedAt      time.Time `json:"asked_at"`
}

// Repo appends interaction records to a Redis list.
type Repo struct {
	store store
}

// New creates an interaction log repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Append stores one record at the tail of the log.
func (r *Repo) Append(ctx context.Context, rec *Record) error {
	if rec.AskedAt.IsZero() {
		rec.AskedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	if err := r.store.RPush(ctx, logKey(), string(data)); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// Count returns the number of logged interactions.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	n, err := r.store.LLen(ctx, logKey())
	if err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return n, nil
}

func logKey() string {
	return domain.KeyPrefix + "interactions"
}
