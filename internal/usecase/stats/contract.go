package stats

import "context"

// InteractionCounter reports the size of the interaction log.
type InteractionCounter interface {
	Count(ctx context.Context) (int64, error)
}

// IndexCounter reports the number of chunks in the vector index.
type IndexCounter interface {
	CountIndexed(ctx context.Context) (int, error)
}
