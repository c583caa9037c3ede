package retrieval

// Hit is a single KNN match from the chunk index (immutable value object).
type Hit struct {
	chunkID        string
	documentID     string
	chunkIndex     int
	content        string
	similarity     float64
	embeddingModel string
}

// New creates a Hit.
func New(chunkID, documentID string, chunkIndex int, content string, similarity float64, embeddingModel string) Hit {
	return Hit{
		chunkID:        chunkID,
		documentID:     documentID,
		chunkIndex:     chunkIndex,
		content:        content,
		similarity:     similarity,
		embeddingModel: embeddingModel,
	}
}

// ChunkID returns the matched chunk identifier.
func (h *Hit) ChunkID() string { return h.chunkID }

// DocumentID returns the owning document identifier.
func (h *Hit) DocumentID() string { return h.documentID }

// ChunkIndex returns the chunk position within its document.
func (h *Hit) ChunkIndex() int { return h.chunkIndex }

// Content returns the matched chunk text.
func (h *Hit) Content() string { return h.content }

// Similarity returns cosine similarity in [0, 1].
func (h *Hit) Similarity() float64 { return h.similarity }

// EmbeddingModel returns the model that produced the chunk's vector.
func (h *Hit) EmbeddingModel() string { return h.embeddingModel }
