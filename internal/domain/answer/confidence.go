package answer

// corroborationCap bounds the breadth bonus: more than 5 matching chunks
// add nothing further.
const corroborationCap = 5

// Confidence derives a score in [0, 1] from retrieval hits:
// min(avg(similarity) + min(n, 5)/5 * 0.2, 1.0).
// Rewards both relevance and corroborating breadth. Zero context yields 0.
func Confidence(records []ContextRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	var sum float64
	for i := range records {
		sum += records[i].Similarity()
	}
	avg := sum / float64(len(records))

	n := len(records)
	if n > corroborationCap {
		n = corroborationCap
	}
	score := avg + float64(n)/corroborationCap*0.2

	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}
