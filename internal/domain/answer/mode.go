package answer

import "unicode/utf8"

// Mode is a named retrieval/generation parameter preset.
type Mode string

// Answer mode constants.
const (
	// Quick favors a short answer from few, highly relevant chunks.
	Quick Mode = "quick"
	// Detailed retrieves a wider context and allows a longer answer.
	Detailed Mode = "detailed"
	// Auto picks quick-like or detailed-like parameters from question length.
	Auto Mode = "auto"
)

// autoLengthThreshold separates short from long questions in auto mode,
// measured in runes.
const autoLengthThreshold = 50

// MaxContextChunks caps caller-supplied context size overrides.
const MaxContextChunks = 50

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Quick || m == Detailed || m == Auto
}

// Params are the resolved retrieval parameters for one query.
type Params struct {
	MaxContextChunks    int
	SimilarityThreshold float64
}

// DefaultParams returns the mode's default retrieval parameters.
// Auto mode resolves by question length: short questions get quick-like
// parameters, long ones a middle ground.
func (m Mode) DefaultParams(question string) Params {
	switch m {
	case Detailed:
		return Params{MaxContextChunks: 8, SimilarityThreshold: 0.2}
	case Auto:
		if utf8.RuneCountInString(question) >= autoLengthThreshold {
			return Params{MaxContextChunks: 5, SimilarityThreshold: 0.25}
		}
		return Params{MaxContextChunks: 3, SimilarityThreshold: 0.3}
	default: // Quick
		return Params{MaxContextChunks: 3, SimilarityThreshold: 0.3}
	}
}

// Resolve applies caller overrides on top of the mode defaults.
// maxChunks <= 0 and threshold < 0 mean "not supplied"; maxChunks is
// clamped to MaxContextChunks.
func (m Mode) Resolve(question string, maxChunks int, threshold float64) Params {
	p := m.DefaultParams(question)
	if maxChunks > 0 {
		p.MaxContextChunks = min(maxChunks, MaxContextChunks)
	}
	if threshold >= 0 {
		p.SimilarityThreshold = threshold
	}
	return p
}
