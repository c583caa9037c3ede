package chunker

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunk_EmptyText(t *testing.T) {
	if got := Chunk("", Options{}); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
}

func TestChunk_ShortTextSinglePiece(t *testing.T) {
	text := "Zone 2 training is aerobic work at a pace you could hold while talking."
	pieces := Chunk(text, Options{MaxChunkSize: 1000, Overlap: 200})

	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Content != text {
		t.Errorf("content = %q, want full text", pieces[0].Content)
	}
	if pieces[0].Start != 0 || pieces[0].End != len(text) {
		t.Errorf("offsets = [%d:%d], want [0:%d]", pieces[0].Start, pieces[0].End, len(text))
	}
}

func TestChunk_DropsNoiseFragments(t *testing.T) {
	// Trimmed length 7, below the default 50-char noise floor.
	pieces := Chunk("  page 3  ", Options{})
	if len(pieces) != 0 {
		t.Errorf("expected noise fragment to be dropped, got %v", pieces)
	}
}

func TestChunk_OffsetsMatchContent(t *testing.T) {
	text := strings.Repeat("The first sentence is here. Another one follows it. ", 60)
	pieces := Chunk(text, Options{MaxChunkSize: 300, Overlap: 60})

	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if text[p.Start:p.End] != p.Content {
			t.Errorf("piece %d: text[%d:%d] != content", i, p.Start, p.End)
		}
		if len(p.Content) > 300 {
			t.Errorf("piece %d exceeds max size: %d chars", i, len(p.Content))
		}
		if strings.TrimSpace(p.Content) != p.Content {
			t.Errorf("piece %d not trimmed: %q", i, p.Content)
		}
	}
}

func TestChunk_PrefersSentenceBoundaries(t *testing.T) {
	text := strings.Repeat("A sentence that ends with a period. ", 50)
	pieces := Chunk(text, Options{MaxChunkSize: 200, Overlap: 40})

	for i, p := range pieces[:len(pieces)-1] {
		if !strings.HasSuffix(p.Content, ".") {
			t.Errorf("piece %d should end at a sentence boundary, got %q", i, p.Content[len(p.Content)-10:])
		}
	}
}

func TestChunk_NoBoundaryFallsBackToFixedWindows(t *testing.T) {
	text := strings.Repeat("x", 2500) // no terminators anywhere
	pieces := Chunk(text, Options{MaxChunkSize: 1000, Overlap: 200})

	if len(pieces) < 3 {
		t.Fatalf("expected >= 3 fixed windows, got %d", len(pieces))
	}
	for i, p := range pieces {
		if len(p.Content) > 1000 {
			t.Errorf("piece %d exceeds window: %d", i, len(p.Content))
		}
	}
}

func TestChunk_CoversAllText(t *testing.T) {
	text := strings.Repeat("Mitochondrial density improves with consistent aerobic training over months. ", 40)
	pieces := Chunk(text, Options{MaxChunkSize: 400, Overlap: 80})

	covered := make([]bool, len(text))
	for _, p := range pieces {
		for i := p.Start; i < p.End; i++ {
			covered[i] = true
		}
	}
	for i, c := range covered {
		if !c && !isSpace(text[i]) {
			t.Fatalf("character %d (%q) not covered by any piece", i, text[i])
		}
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("Deterministic output matters for re-chunking after updates. ", 50)
	opts := Options{MaxChunkSize: 350, Overlap: 70}

	a := Chunk(text, opts)
	b := Chunk(text, opts)
	if !reflect.DeepEqual(a, b) {
		t.Error("chunking is not deterministic")
	}
}

func TestChunk_TinyWindowScenario(t *testing.T) {
	text := strings.Repeat("A. B. C. ", 10)
	pieces := Chunk(text, Options{MaxChunkSize: 10, Overlap: 2, MinChunkLength: -1})

	if len(pieces) < 2 {
		t.Fatalf("expected >= 2 pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if len(p.Content) > 15 {
			t.Errorf("piece %d too long: %q", i, p.Content)
		}
	}
	// Adjacent windows overlap: the next piece starts before the previous ended.
	for i := 1; i < len(pieces); i++ {
		if pieces[i].Start >= pieces[i-1].End {
			t.Errorf("pieces %d and %d do not overlap: [%d:%d] then [%d:%d]",
				i-1, i, pieces[i-1].Start, pieces[i-1].End, pieces[i].Start, pieces[i].End)
		}
	}
}

func TestChunk_NeverSplitsMultibyteRunes(t *testing.T) {
	// Cyrillic, two bytes per rune, no sentence terminators: every fixed
	// window cut risks landing mid-rune.
	text := strings.Repeat("тренировка", 120)
	pieces := Chunk(text, Options{MaxChunkSize: 333, Overlap: 67, MinChunkLength: -1})

	if len(pieces) < 3 {
		t.Fatalf("expected >= 3 pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if !utf8.ValidString(p.Content) {
			t.Errorf("piece %d is not valid UTF-8: %q", i, p.Content)
		}
		if p.Content != text[p.Start:p.End] {
			t.Errorf("piece %d offsets drifted", i)
		}
	}
}

func TestChunk_ForwardProgressWhenOverlapExceedsWindow(t *testing.T) {
	text := strings.Repeat("y", 500)
	// Overlap far larger than the window must still terminate.
	pieces := Chunk(text, Options{MaxChunkSize: 100, Overlap: 100, MinChunkLength: -1})

	if len(pieces) == 0 {
		t.Fatal("expected pieces")
	}
	for i := 1; i < len(pieces); i++ {
		if pieces[i].Start <= pieces[i-1].Start {
			t.Fatalf("no forward progress between pieces %d and %d", i-1, i)
		}
	}
}
