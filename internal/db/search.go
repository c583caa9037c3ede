package db

// TagFilter restricts a KNN search to entries whose tag field matches a value.
type TagFilter struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
	Tag          *TagFilter // optional pre-filter
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit from a search.
// Score is cosine similarity in [0, 1] (1 - distance, clamped).
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
