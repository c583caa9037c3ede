// Package chunker splits extracted document text into overlapping,
// boundary-aware fragments. It is pure and deterministic: the same input
// always yields the same pieces, making re-chunking after a document
// update safe to verify.
package chunker

import "unicode/utf8"

// Defaults for chunking parameters.
const (
	DefaultMaxChunkSize = 1000
	DefaultOverlap      = 200
	// DefaultMinChunkLength drops trimmed fragments at or below this length
	// as noise (page numbers, stray headings).
	DefaultMinChunkLength = 50
)

// Options control the sliding window. Zero values take the defaults above.
// MinChunkLength < 0 disables the noise filter entirely.
type Options struct {
	MaxChunkSize   int
	Overlap        int
	MinChunkLength int
}

func (o Options) withDefaults() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.Overlap <= 0 {
		o.Overlap = DefaultOverlap
	}
	if o.MinChunkLength == 0 {
		o.MinChunkLength = DefaultMinChunkLength
	}
	return o
}

// Piece is one produced fragment. Start/End are character offsets into the
// original text such that text[Start:End] == Content after trimming.
type Piece struct {
	Content string
	Start   int
	End     int
}

// Chunk splits text into overlapping pieces of at most opts.MaxChunkSize
// characters. Window end-points strictly inside the text are pulled back to
// the nearest sentence terminator or newline, searching no further back than
// half a window, and never land inside a multibyte rune. The next window
// starts overlap characters before the previous end, with guaranteed forward
// progress even when overlap >= maxChunkSize.
func Chunk(text string, opts Options) []Piece {
	opts = opts.withDefaults()

	if text == "" {
		return nil
	}

	if len(text) <= opts.MaxChunkSize {
		var pieces []Piece
		if p, ok := trimPiece(text, 0, len(text), opts.MinChunkLength); ok {
			pieces = append(pieces, p)
		}
		return pieces
	}

	var pieces []Piece
	start := 0
	for start < len(text) {
		end := start + opts.MaxChunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = adjustToBoundary(text, start, end, opts.MaxChunkSize)
			// Never cut inside a multibyte rune.
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
		}

		if p, ok := trimPiece(text, start, end, opts.MinChunkLength); ok {
			pieces = append(pieces, p)
		}

		if end == len(text) {
			break
		}

		next := end - opts.Overlap
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			// Forward progress guard: overlap >= window must not loop.
			next = start + 1
			for next < len(text) && !utf8.RuneStart(text[next]) {
				next++
			}
		}
		start = next
	}

	return pieces
}

// adjustToBoundary pulls the window end back to just after the nearest
// sentence terminator or newline, searching no further back than half the
// window size. Returns the raw end when no boundary is close enough.
func adjustToBoundary(text string, start, end, maxChunkSize int) int {
	limit := end - maxChunkSize/2
	if limit < start {
		limit = start
	}
	for i := end - 1; i >= limit; i-- {
		if text[i] == '.' || text[i] == '\n' {
			return i + 1
		}
	}
	return end
}

// trimPiece strips surrounding whitespace, keeping offsets aligned with the
// original text, and rejects fragments at or below minLen.
func trimPiece(text string, start, end, minLen int) (Piece, bool) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	if end-start <= minLen || start >= end {
		return Piece{}, false
	}
	return Piece{Content: text[start:end], Start: start, End: end}, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
