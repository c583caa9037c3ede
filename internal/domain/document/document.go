package document

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 1 << 21 // 2MB of extracted text

// Metadata is free-form ingestion metadata attached by the document source.
type Metadata struct {
	WordCount     int
	ParseDuration time.Duration
	SourceType    string // pdf, docx, txt...
}

// Document is an ingested document (immutable value object).
// The core only reads its content; creation is driven by the ingestion collaborator.
type Document struct {
	id        string
	name      string
	content   string
	meta      Metadata
	createdAt time.Time
	updatedAt time.Time
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Content: non-empty, max 2MB.
func New(id, name, content string, meta Metadata) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("%w: document ID is required", domain.ErrInvalidArgument)
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("%w: document ID too long (max 256)", domain.ErrInvalidArgument)
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("%w: document ID must be alphanumeric with underscores and hyphens", domain.ErrInvalidArgument)
	}
	if name == "" {
		name = id
	}
	if content == "" {
		return Document{}, fmt.Errorf("%w: content is required", domain.ErrInvalidArgument)
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("%w: content too large (max %d bytes)", domain.ErrInvalidArgument, MaxContentSize)
	}

	now := time.Now().UTC()
	return Document{
		id:        id,
		name:      name,
		content:   content,
		meta:      meta,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, name, content string, meta Metadata, createdAt, updatedAt time.Time) Document {
	return Document{
		id:        id,
		name:      name,
		content:   content,
		meta:      meta,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Name returns the display name (typically the source filename).
func (d *Document) Name() string { return d.name }

// Content returns the extracted full text.
func (d *Document) Content() string { return d.content }

// Meta returns the ingestion metadata.
func (d *Document) Meta() Metadata { return d.meta }

// CreatedAt returns the creation timestamp.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last update timestamp.
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }
