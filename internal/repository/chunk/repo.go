package chunk

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/db"
	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
	domchunk "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/chunk"
)

// store is the consumer interface for chunks (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists chunks as Redis hashes under {prefix}chunks:{docID}:{index}.
// The vector field is stored as a binary FLOAT32 blob so FT.SEARCH can index it.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SaveAll stores chunks in a single pipelined write.
func (r *Repo) SaveAll(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	for i := range chunks {
		items[i] = db.HashSetItem{
			Key:    chunkKey(chunks[i].ID()),
			Fields: toHash(&chunks[i]),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	return nil
}

// Get returns a chunk by ID.
func (r *Repo) Get(ctx context.Context, id string) (domchunk.Chunk, error) {
	key := chunkKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domchunk.Chunk{}, domain.ErrChunkNotFound
		}
		return domchunk.Chunk{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domchunk.Chunk{}, domain.ErrChunkNotFound
	}
	return fromHash(id, fields), nil
}

// AttachVector writes the embedding fields of an already stored chunk.
func (r *Repo) AttachVector(ctx context.Context, c *domchunk.Chunk) error {
	if !c.Embedded() {
		return fmt.Errorf("chunk %s: %w", c.ID(), domain.ErrChunkNotEmbedded)
	}
	key := chunkKey(c.ID())
	fields := map[string]string{
		fieldVector:         vectorToBytes(c.Embedding()),
		fieldEmbeddingModel: c.EmbeddingModel(),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// ListByDocumentID returns all chunks of a document ordered by index.
func (r *Repo) ListByDocumentID(ctx context.Context, documentID string) ([]domchunk.Chunk, error) {
	keys, err := r.scanDocumentKeys(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load chunks for %s: %w", documentID, err)
	}

	chunks := make([]domchunk.Chunk, 0, len(hashes))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		chunks = append(chunks, fromHash(chunkIDFromKey(keys[i]), fields))
	}

	sortByIndex(chunks)
	return chunks, nil
}

// DeleteByDocumentID removes all chunks of a document. Returns the number deleted.
func (r *Repo) DeleteByDocumentID(ctx context.Context, documentID string) (int, error) {
	keys, err := r.scanDocumentKeys(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("delete chunks for %s: %w", documentID, err)
	}
	return len(keys), nil
}

func (r *Repo) scanDocumentKeys(ctx context.Context, documentID string) ([]string, error) {
	pattern := fmt.Sprintf("%schunks:%s:*", domain.KeyPrefix, documentID)
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan chunks for %s: %w", documentID, err)
	}
	return keys, nil
}

func chunkKey(id string) string {
	return fmt.Sprintf("%schunks:%s", domain.KeyPrefix, id)
}

func chunkIDFromKey(key string) string {
	prefix := domain.KeyPrefix + "chunks:"
	if len(key) > len(prefix) {
		return key[len(prefix):]
	}
	return key
}

func sortByIndex(chunks []domchunk.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index() < chunks[j].Index()
	})
}
