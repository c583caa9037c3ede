package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	domans "github.com/ViktorPalchynskyi/Peter-Attia-RAG/internal/domain/answer"
)

// Token budgets per mode. The budget bounds the completion, not the prompt.
const (
	quickMaxTokens    = 400
	detailedMaxTokens = 1200
)

const systemBase = "You are an assistant that answers questions strictly from the provided context. " +
	"Answer only using the context blocks. If the context does not cover some part of the question, " +
	"say that the knowledge base does not cover it instead of guessing. " +
	"Cite the sources you used by their names."

// systemInstruction parameterizes the register by mode.
func systemInstruction(mode domans.Mode) string {
	switch mode {
	case domans.Detailed:
		return systemBase + " Give a thorough, structured answer covering every relevant point in the context."
	case domans.Quick:
		return systemBase + " Answer in a few concise sentences."
	default:
		return systemBase + " Keep the answer focused and proportional to the question."
	}
}

// userInstruction enumerates context blocks labeled by source, then the question.
func userInstruction(question string, records []domans.ContextRecord) string {
	var b strings.Builder

	b.WriteString("Context:\n\n")
	for i := range records {
		r := &records[i]
		fmt.Fprintf(&b, "[%d] (source: %s, relevance: %.2f)\n%s\n\n", i+1, r.Source(), r.Similarity(), r.Content())
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer from the context above, citing sources.")

	return b.String()
}

// maxTokensFor scales the completion budget with mode.
func maxTokensFor(mode domans.Mode, question string) int {
	switch mode {
	case domans.Detailed:
		return detailedMaxTokens
	case domans.Quick:
		return quickMaxTokens
	default:
		if utf8.RuneCountInString(question) >= 50 {
			return detailedMaxTokens
		}
		return quickMaxTokens
	}
}
