package chunk

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	domchunk "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/chunk"
)

// Hash field names. fieldVector and fieldDocument are indexed by FT.SEARCH,
// so their names must match the index schema.
const (
	fieldContent        = "content"
	fieldDocument       = "document"
	fieldIndex          = "index"
	fieldStart          = "start"
	fieldEnd            = "end"
	fieldVector         = "__vector"
	fieldEmbeddingModel = "embedding_model"
)

// toHash converts a Chunk to Redis hash fields.
func toHash(c *domchunk.Chunk) map[string]string {
	m := map[string]string{
		fieldContent:  c.Content(),
		fieldDocument: c.DocumentID(),
		fieldIndex:    strconv.Itoa(c.Index()),
		fieldStart:    strconv.Itoa(c.Start()),
		fieldEnd:      strconv.Itoa(c.End()),
	}
	if c.Embedded() {
		m[fieldVector] = vectorToBytes(c.Embedding())
		m[fieldEmbeddingModel] = c.EmbeddingModel()
	}
	return m
}

// fromHash reconstructs a Chunk from hash fields.
func fromHash(id string, m map[string]string) domchunk.Chunk {
	var vector []float32
	if blob, ok := m[fieldVector]; ok && blob != "" {
		vector = bytesToVector(blob)
	}

	documentID := m[fieldDocument]
	if documentID == "" {
		// derive from the "docID:index" shape when the field is absent
		if i := strings.LastIndex(id, ":"); i > 0 {
			documentID = id[:i]
		}
	}

	return domchunk.Reconstruct(
		id,
		documentID,
		atoi(m[fieldIndex]),
		m[fieldContent],
		atoi(m[fieldStart]),
		atoi(m[fieldEnd]),
		vector,
		m[fieldEmbeddingModel],
	)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) < 4 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
