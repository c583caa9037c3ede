package chunk

import "fmt"

// Chunk is a bounded contiguous substring of a document's text, the unit
// of retrieval. A chunk belongs to exactly one document and is deleted and
// recreated, never patched, when the parent content changes.
type Chunk struct {
	id             string
	documentID     string
	index          int
	content        string
	start          int
	end            int
	embedding      []float32 // nil means "not yet embedded"
	embeddingModel string
}

// New validates and creates a Chunk against its parent document content.
// Offsets must satisfy 0 <= start < end <= len(docContent) and content must
// equal docContent[start:end].
func New(documentID string, index int, docContent string, start, end int) (Chunk, error) {
	if documentID == "" {
		return Chunk{}, fmt.Errorf("document ID is required")
	}
	if index < 0 {
		return Chunk{}, fmt.Errorf("chunk index must be non-negative, got %d", index)
	}
	if start < 0 || start >= end || end > len(docContent) {
		return Chunk{}, fmt.Errorf(
			"chunk offsets out of range: [%d:%d] against content of %d bytes",
			start, end, len(docContent),
		)
	}

	return Chunk{
		id:         ID(documentID, index),
		documentID: documentID,
		index:      index,
		content:    docContent[start:end],
		start:      start,
		end:        end,
	}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(
	id, documentID string, index int, content string, start, end int,
	embedding []float32, embeddingModel string,
) Chunk {
	return Chunk{
		id:             id,
		documentID:     documentID,
		index:          index,
		content:        content,
		start:          start,
		end:            end,
		embedding:      embedding,
		embeddingModel: embeddingModel,
	}
}

// ID derives the chunk identifier from its document and position.
func ID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}

// WithEmbedding returns a copy with the vector attached. Vectors are
// immutable once attached; attaching twice is a programming error.
func (c Chunk) WithEmbedding(vector []float32, model string) (Chunk, error) {
	if c.embedding != nil {
		return Chunk{}, fmt.Errorf("chunk %s already embedded", c.id)
	}
	if len(vector) == 0 {
		return Chunk{}, fmt.Errorf("embedding vector is empty")
	}
	c.embedding = vector
	c.embeddingModel = model
	return c, nil
}

// ID returns the chunk identifier.
func (c *Chunk) ID() string { return c.id }

// DocumentID returns the owning document identifier.
func (c *Chunk) DocumentID() string { return c.documentID }

// Index returns the sequential position within the document.
func (c *Chunk) Index() int { return c.index }

// Content returns the chunk text.
func (c *Chunk) Content() string { return c.content }

// Start returns the start character offset into the document content.
func (c *Chunk) Start() int { return c.start }

// End returns the end character offset into the document content.
func (c *Chunk) End() int { return c.end }

// Embedding returns the attached vector, or nil if not yet embedded.
func (c *Chunk) Embedding() []float32 { return c.embedding }

// EmbeddingModel returns the model that produced the vector.
func (c *Chunk) EmbeddingModel() string { return c.embeddingModel }

// Embedded reports whether a vector is attached.
func (c *Chunk) Embedded() bool { return c.embedding != nil }
