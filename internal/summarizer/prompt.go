package summarizer

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `Summarize the news article excerpt.

Rules:
- Between %d and %d words.
- Abstractive: rephrase instead of copying sentences.
- Keep key facts (names, dates, numbers, places).
- Neutral tone, no preamble, no lists, no markdown.
- Output plain prose in the same language as the input.`

// wordBounds converts token bounds to the word counts models follow better.
func wordBounds(minTokens int, maxTokens int) (int, int) {
	minWords := minTokens * 3 / 4
	maxWords := max(maxTokens*3/4, 1)

	return min(minWords, maxWords), maxWords
}

func systemPrompt(minTokens int, maxTokens int) string {
	minWords, maxWords := wordBounds(minTokens, maxTokens)
	return fmt.Sprintf(systemPromptTemplate, minWords, maxWords)
}

func userPrompt(text string, sourceURL string) string {
	userPromptBuilder := strings.Builder{}
	if sourceURL = strings.TrimSpace(sourceURL); sourceURL != "" {
		userPromptBuilder.WriteString("Source:\n")
		userPromptBuilder.WriteString(sourceURL)
		userPromptBuilder.WriteString("\n")
	}
	userPromptBuilder.WriteString("Content:\n")
	userPromptBuilder.WriteString(text)

	return userPromptBuilder.String()
}
