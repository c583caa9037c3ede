package answer

import "time"

// NoContextMessage is the fixed answer returned when retrieval finds nothing
// above the similarity threshold. No generation call is made in that case.
const NoContextMessage = "I don't have enough information in the knowledge base to answer this question. " +
	"Try rephrasing it, or ask about a topic covered by the ingested documents."

// Timings are the independently measured durations of one answered query.
type Timings struct {
	Search     time.Duration
	Generation time.Duration
	Total      time.Duration
}

// Result is the outcome of one answered query.
type Result struct {
	answer     string
	confidence float64
	sources    []string
	context    []ContextRecord
	mode       Mode
	timings    Timings
}

// NewResult creates an answered result.
func NewResult(
	answer string, confidence float64, sources []string,
	context []ContextRecord, mode Mode, timings Timings,
) Result {
	return Result{
		answer:     answer,
		confidence: confidence,
		sources:    sources,
		context:    context,
		mode:       mode,
		timings:    timings,
	}
}

// NewNoContextResult creates the valid, non-error outcome for a query with
// zero retrieval hits: templated message, zero confidence, empty sources.
func NewNoContextResult(mode Mode, timings Timings) Result {
	return Result{
		answer:  NoContextMessage,
		mode:    mode,
		timings: timings,
	}
}

// Answer returns the answer text.
func (r *Result) Answer() string { return r.answer }

// Confidence returns the confidence score in [0, 1].
func (r *Result) Confidence() float64 { return r.confidence }

// Sources returns unique source document names in first-seen order.
func (r *Result) Sources() []string { return r.sources }

// Context returns the retrieved context records.
func (r *Result) Context() []ContextRecord { return r.context }

// ContextUsed returns the number of context chunks supplied to generation.
func (r *Result) ContextUsed() int { return len(r.context) }

// Mode returns the answer mode.
func (r *Result) Mode() Mode { return r.mode }

// Timings returns the measured durations.
func (r *Result) Timings() Timings { return r.timings }

// NoContext reports whether retrieval found nothing usable.
func (r *Result) NoContext() bool { return len(r.context) == 0 }
