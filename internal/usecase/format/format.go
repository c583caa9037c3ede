// Package format renders an answer result into a presentation-ready payload:
// illustrative quotes, cosmetically normalized sources, a bucketed confidence
// label. It never alters the underlying answer, confidence or source list.
package format

import (
	"math"
	"path"
	"strings"
	"unicode"

	domans "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/answer"
)

const (
	maxQuotes  = 3
	maxSources = 3

	minQuoteLen = 30
	maxQuoteLen = 150

	// keywords shorter than this are too generic to anchor a quote.
	minKeywordLen = 4

	maxTitleLen = 60
)

// Confidence display tiers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Answer is the presentation payload for one answered query.
type Answer struct {
	Answer          string   `json:"answer"`
	Quotes          []string `json:"quotes,omitempty"`
	Sources         []string `json:"sources,omitempty"`
	Confidence      float64  `json:"confidence"`
	ConfidenceLevel string   `json:"confidence_level"`
	ContextUsed     int      `json:"context_used"`
	Mode            string   `json:"mode"`
	ElapsedSeconds  int      `json:"elapsed_seconds"`
}

// Render formats a result for display. The question drives quote selection:
// sentences from the retrieved context that mention a question keyword make
// the best supporting quotes.
func Render(question string, r *domans.Result) Answer {
	return Answer{
		Answer:          r.Answer(),
		Quotes:          extractQuotes(question, r.Context()),
		Sources:         normalizeSources(r.Sources()),
		Confidence:      r.Confidence(),
		ConfidenceLevel: ConfidenceLevel(r.Confidence()),
		ContextUsed:     r.ContextUsed(),
		Mode:            string(r.Mode()),
		ElapsedSeconds:  int(math.Round(r.Timings().Total.Seconds())),
	}
}

// ConfidenceLevel buckets a confidence score into three display tiers.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return ConfidenceHigh
	case confidence >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// extractQuotes picks up to three sentences from the context that are
// reasonably sized and mention a question keyword. When nothing matches it
// falls back to the first long sentences of the most relevant chunk, so an
// answered query never renders without supporting text.
func extractQuotes(question string, records []domans.ContextRecord) []string {
	if len(records) == 0 {
		return nil
	}

	keywords := questionKeywords(question)

	var quotes []string
	for i := range records {
		for _, sentence := range splitSentences(records[i].Content()) {
			if len(sentence) < minQuoteLen || len(sentence) > maxQuoteLen {
				continue
			}
			if !containsKeyword(sentence, keywords) {
				continue
			}
			quotes = append(quotes, sentence)
			if len(quotes) == maxQuotes {
				return quotes
			}
		}
	}
	if len(quotes) > 0 {
		return quotes
	}

	for _, sentence := range splitSentences(records[0].Content()) {
		if len(sentence) < minQuoteLen {
			continue
		}
		quotes = append(quotes, sentence)
		if len(quotes) == 2 {
			break
		}
	}
	return quotes
}

// questionKeywords tokenizes the lowercased question and keeps tokens long
// enough to be meaningful.
func questionKeywords(question string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	keywords := tokens[:0]
	for _, tok := range tokens {
		if len(tok) >= minKeywordLen {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

func containsKeyword(sentence string, keywords []string) bool {
	lower := strings.ToLower(sentence)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// splitSentences breaks text on terminal punctuation, trimming whitespace.
// Approximate by intent: abbreviations and decimals may split oddly, which
// the length bounds in extractQuotes absorb.
func splitSentences(text string) []string {
	var sentences []string

	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// normalizeSources strips file extensions and collapses overlong titles,
// keeping at most three references.
func normalizeSources(sources []string) []string {
	if len(sources) == 0 {
		return nil
	}

	n := len(sources)
	if n > maxSources {
		n = maxSources
	}

	out := make([]string, 0, n)
	for _, src := range sources[:n] {
		title := strings.TrimSuffix(src, path.Ext(src))
		if len(title) > maxTitleLen {
			title = strings.TrimSpace(title[:maxTitleLen-3]) + "..."
		}
		out = append(out, title)
	}
	return out
}
