package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"newsbrief/internal/domain"
)

// chunkSentences packs whole sentences into windows. Token positions index the
// concatenation of per-sentence encodings. A sentence longer than maxTokens is
// split on token boundaries.
func (c *Chunker) chunkSentences(text string, maxTokens int) ([]domain.Chunk, error) {
	var (
		chunks  []domain.Chunk
		current strings.Builder
		start   int
		pos     int
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}

		chunks = append(chunks, domain.Chunk{
			Index: len(chunks),
			Start: start,
			End:   pos,
			Text:  strings.TrimSpace(current.String()),
		})
		current.Reset()
		start = pos
	}

	for _, sentence := range splitSentences(text) {
		ids, err := c.tk.Encode(sentence)
		if err != nil {
			return nil, domain.TokenizationError(fmt.Errorf("encode sentence: %w", err))
		}
		if len(ids) == 0 {
			current.WriteString(sentence)
			continue
		}

		if len(ids) > maxTokens {
			flush()

			split, splitErr := c.decodeWindows(ids, len(chunks), pos, maxTokens)
			if splitErr != nil {
				return nil, splitErr
			}
			chunks = append(chunks, split...)

			pos += len(ids)
			start = pos

			continue
		}

		if pos-start+len(ids) > maxTokens {
			flush()
		}

		current.WriteString(sentence)
		pos += len(ids)
	}

	flush()

	return chunks, nil
}

// splitSentences cuts text after sentence terminators that are followed by
// whitespace. Trailing whitespace stays with the preceding sentence, so the
// pieces concatenate back to text.
func splitSentences(text string) []string {
	runes := []rune(text)

	var sentences []string
	begin := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}

		j := i + 1
		for j < len(runes) && isCloser(runes[j]) {
			j++
		}

		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			continue
		}

		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}

		sentences = append(sentences, string(runes[begin:j]))
		begin = j
		i = j - 1
	}

	if begin < len(runes) {
		sentences = append(sentences, string(runes[begin:]))
	}

	return sentences
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	default:
		return false
	}
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '»', '”', '’':
		return true
	default:
		return false
	}
}
