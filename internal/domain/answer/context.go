package answer

// ContextRecord is one retrieved chunk supplied to the generation model.
type ContextRecord struct {
	content    string
	similarity float64
	source     string // display name of the source document
	documentID string
	chunkIndex int
}

// NewContextRecord creates a context record from a retrieval hit.
func NewContextRecord(content string, similarity float64, source, documentID string, chunkIndex int) ContextRecord {
	return ContextRecord{
		content:    content,
		similarity: similarity,
		source:     source,
		documentID: documentID,
		chunkIndex: chunkIndex,
	}
}

// Content returns the chunk text.
func (c *ContextRecord) Content() string { return c.content }

// Similarity returns the query similarity in [0, 1].
func (c *ContextRecord) Similarity() float64 { return c.similarity }

// Source returns the source document display name.
func (c *ContextRecord) Source() string { return c.source }

// DocumentID returns the source document identifier.
func (c *ContextRecord) DocumentID() string { return c.documentID }

// ChunkIndex returns the chunk position within its document.
func (c *ContextRecord) ChunkIndex() int { return c.chunkIndex }

// Sources extracts the unique source names from context records,
// preserving first-seen order.
func Sources(records []ContextRecord) []string {
	seen := make(map[string]bool, len(records))
	var out []string
	for i := range records {
		s := records[i].Source()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
