package stats

import (
	"context"
	"fmt"
)

// Report holds service-level usage counters.
type Report struct {
	Interactions  int64
	IndexedChunks int
}

// Service aggregates usage counters from the interaction log and the
// chunk index.
type Service struct {
	log   InteractionCounter
	index IndexCounter
}

// New creates a stats service.
func New(log InteractionCounter, index IndexCounter) *Service {
	return &Service{log: log, index: index}
}

// Overview returns the current usage counters.
func (s *Service) Overview(ctx context.Context) (Report, error) {
	interactions, err := s.log.Count(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("count interactions: %w", err)
	}

	indexed, err := s.index.CountIndexed(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("count indexed chunks: %w", err)
	}

	return Report{Interactions: interactions, IndexedChunks: indexed}, nil
}
