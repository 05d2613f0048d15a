package chunker

import (
	"fmt"
	"strings"

	"newsbrief/internal/config"
	"newsbrief/internal/domain"
	"newsbrief/internal/tokenizer"
)

const DefaultMaxTokens = 1024

// Chunker partitions text into token windows sized for one model call.
type Chunker struct {
	tk       tokenizer.Tokenizer
	strategy string
}

// New returns a chunker. An empty strategy selects fixed token windows.
func New(tk tokenizer.Tokenizer, strategy string) (*Chunker, error) {
	strategy = strings.ToLower(strings.TrimSpace(strategy))
	if strategy == "" {
		strategy = config.ChunkStrategyTokens
	}

	switch strategy {
	case config.ChunkStrategyTokens, config.ChunkStrategySentences:
	default:
		return nil, fmt.Errorf("unsupported chunk strategy: %s", strategy)
	}

	return &Chunker{tk: tk, strategy: strategy}, nil
}

// Chunk splits text into ordered, non-overlapping windows of at most maxTokens
// tokens (DefaultMaxTokens when maxTokens <= 0). Blank text yields no chunks.
func (c *Chunker) Chunk(text string, maxTokens int) ([]domain.Chunk, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if c.strategy == config.ChunkStrategySentences {
		return c.chunkSentences(text, maxTokens)
	}

	ids, err := c.tk.Encode(text)
	if err != nil {
		return nil, domain.TokenizationError(fmt.Errorf("encode text: %w", err))
	}

	return c.decodeWindows(ids, 0, 0, maxTokens)
}

// Windows returns the [start, end) bounds that cover n tokens in windows of
// maxTokens, the last one holding the remainder.
func Windows(n int, maxTokens int) [][2]int {
	if n <= 0 || maxTokens <= 0 {
		return nil
	}

	windows := make([][2]int, 0, (n+maxTokens-1)/maxTokens)
	for start := 0; start < n; start += maxTokens {
		windows = append(windows, [2]int{start, min(start+maxTokens, n)})
	}

	return windows
}

// decodeWindows splits ids into windows and decodes each one. firstIndex and
// offset shift chunk indexes and token positions when ids is a slice of a
// longer sequence.
func (c *Chunker) decodeWindows(
	ids []int,
	firstIndex int,
	offset int,
	maxTokens int,
) ([]domain.Chunk, error) {
	windows := Windows(len(ids), maxTokens)
	chunks := make([]domain.Chunk, 0, len(windows))

	for i, w := range windows {
		text, err := c.tk.Decode(ids[w[0]:w[1]])
		if err != nil {
			return nil, domain.TokenizationError(fmt.Errorf("decode window %d: %w", i, err))
		}

		chunks = append(chunks, domain.Chunk{
			Index: firstIndex + i,
			Start: offset + w[0],
			End:   offset + w[1],
			Text:  text,
		})
	}

	return chunks, nil
}
