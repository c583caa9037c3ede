package answer

import (
	"fmt"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
)

// MaxQuestionLength is the maximum allowed question length.
const MaxQuestionLength = 4096

// Query is a validated question with resolved retrieval parameters.
// Transient: never persisted as an entity, only logged as a flattened record.
type Query struct {
	question string
	mode     Mode
	params   Params
	userID   string
}

// NewQuery validates the question, resolves the mode and applies overrides.
// maxChunks <= 0 and threshold < 0 mean "use the mode default".
func NewQuery(question string, m Mode, maxChunks int, threshold float64, userID string) (Query, error) {
	if question == "" {
		return Query{}, fmt.Errorf("%w: question is required", domain.ErrInvalidArgument)
	}
	if len(question) > MaxQuestionLength {
		return Query{}, fmt.Errorf("%w: question too long (max %d chars)", domain.ErrInvalidArgument, MaxQuestionLength)
	}
	if m == "" {
		m = Auto
	}
	if !m.IsValid() {
		return Query{}, fmt.Errorf("%w: invalid mode %q", domain.ErrInvalidArgument, m)
	}
	if threshold > 1 {
		return Query{}, fmt.Errorf("%w: similarity threshold must be at most 1", domain.ErrInvalidArgument)
	}

	return Query{
		question: question,
		mode:     m,
		params:   m.Resolve(question, maxChunks, threshold),
		userID:   userID,
	}, nil
}

// Question returns the question text.
func (q *Query) Question() string { return q.question }

// Mode returns the answer mode.
func (q *Query) Mode() Mode { return q.mode }

// Params returns the resolved retrieval parameters.
func (q *Query) Params() Params { return q.params }

// UserID returns the optional user identifier.
func (q *Query) UserID() string { return q.userID }
