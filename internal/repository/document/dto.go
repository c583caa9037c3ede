package document

import (
	"strconv"
	"time"

	domdoc "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/document"
)

// toHash converts a Document to Redis hash fields.
func toHash(doc *domdoc.Document) map[string]string {
	meta := doc.Meta()
	return map[string]string{
		"name":          doc.Name(),
		"content":       doc.Content(),
		"word_count":    strconv.Itoa(meta.WordCount),
		"parse_dur_ms":  strconv.FormatInt(meta.ParseDuration.Milliseconds(), 10),
		"source_type":   meta.SourceType,
		"created_at_ms": strconv.FormatInt(doc.CreatedAt().UnixMilli(), 10),
		"updated_at_ms": strconv.FormatInt(doc.UpdatedAt().UnixMilli(), 10),
	}
}

// fromHash reconstructs a Document from hash fields. Unparseable numeric
// fields fall back to zero values rather than failing the read.
func fromHash(id string, m map[string]string) domdoc.Document {
	meta := domdoc.Metadata{
		SourceType: m["source_type"],
	}
	if n, err := strconv.Atoi(m["word_count"]); err == nil {
		meta.WordCount = n
	}
	if ms, err := strconv.ParseInt(m["parse_dur_ms"], 10, 64); err == nil {
		meta.ParseDuration = time.Duration(ms) * time.Millisecond
	}

	return domdoc.Reconstruct(
		id,
		m["name"],
		m["content"],
		meta,
		parseMillis(m["created_at_ms"]),
		parseMillis(m["updated_at_ms"]),
	)
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
