package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/db"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/retrieval"
)

// store is the consumer interface for the chunk index (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Options hold HNSW build parameters for the chunk index.
type Options struct {
	VectorDim       int
	HNSWM           int
	HNSWEFConstruct int
}

// Repo runs KNN queries against the FT index over chunk hashes.
// Only chunks with an attached vector are indexed, so unembedded
// chunks can never appear in results.
type Repo struct {
	store store
	opts  Options
}

// New creates an index repository.
func New(s store, opts Options) *Repo {
	return &Repo{store: s, opts: opts}
}

// EnsureIndex creates the chunk vector index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	name := indexName()

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{chunkPrefix()},
		Fields: []db.IndexField{
			{Name: "document", Type: db.IndexFieldTag},
			{Name: "index", Type: db.IndexFieldNumeric},
			{
				Name:              "__vector",
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.opts.VectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.opts.HNSWM,
				VectorEFConstruct: r.opts.HNSWEFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// CountIndexed returns the number of chunks currently in the vector index.
// Chunks without an attached vector are never indexed, so this is also the
// embedded-chunk count.
func (r *Repo) CountIndexed(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count indexed chunks: %w", err)
	}
	return n, nil
}

// Search returns the chunks most similar to the query vector, filtered
// by minimum similarity.
func (r *Repo) Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]retrieval.Hit, error) {
	return r.search(ctx, vector, limit, threshold, nil, "")
}

// SearchWithinDocument restricts the search to chunks of one document.
func (r *Repo) SearchWithinDocument(
	ctx context.Context, documentID string, vector []float32, limit int, threshold float64,
) ([]retrieval.Hit, error) {
	tag := &db.TagFilter{Field: "document", Value: documentID}
	return r.search(ctx, vector, limit, threshold, tag, "")
}

// FindSimilarToChunk returns chunks most similar to a stored chunk,
// excluding the chunk itself.
func (r *Repo) FindSimilarToChunk(
	ctx context.Context, chunkID string, limit int, threshold float64,
) ([]retrieval.Hit, error) {
	key := chunkPrefix() + chunkID
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load chunk %s: %w", chunkID, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrChunkNotFound
	}

	blob := fields["__vector"]
	if blob == "" {
		return nil, fmt.Errorf("chunk %s: %w", chunkID, domain.ErrChunkNotEmbedded)
	}

	// over-fetch by one so the self-match does not eat a result slot
	return r.search(ctx, bytesToVector(blob), limit, threshold, nil, chunkID)
}

func (r *Repo) search(
	ctx context.Context, vector []float32, limit int, threshold float64,
	tag *db.TagFilter, excludeChunkID string,
) ([]retrieval.Hit, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %w", domain.ErrInvalidArgument)
	}

	k := limit
	if excludeChunkID != "" {
		k++
	}

	q := &db.KNNQuery{
		IndexName:    indexName(),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"content", "document", "index", "embedding_model", "__vector_score"},
		Tag:          tag,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	hits := make([]retrieval.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		chunkID := strings.TrimPrefix(entry.Key, chunkPrefix())
		if chunkID == excludeChunkID {
			continue
		}
		if entry.Score < threshold {
			continue
		}
		hits = append(hits, parseEntry(chunkID, entry))
		if len(hits) == limit {
			break
		}
	}

	return hits, nil
}

func parseEntry(chunkID string, entry db.SearchEntry) retrieval.Hit {
	documentID := entry.Fields["document"]
	if documentID == "" {
		if i := strings.LastIndex(chunkID, ":"); i > 0 {
			documentID = chunkID[:i]
		}
	}

	chunkIndex, _ := strconv.Atoi(entry.Fields["index"])

	return retrieval.New(
		chunkID, documentID, chunkIndex,
		entry.Fields["content"], entry.Score, entry.Fields["embedding_model"],
	)
}

func indexName() string {
	return domain.KeyPrefix + "chunks:idx"
}

func chunkPrefix() string {
	return domain.KeyPrefix + "chunks:"
}

// bytesToVector deserializes a binary string to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
