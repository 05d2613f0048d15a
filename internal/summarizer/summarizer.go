package summarizer

import (
	"context"
)

const (
	DefaultMaxLength = 130
	DefaultMinLength = 30
)

// Input describes the payload for a summary request.
type Input struct {
	// Text contains one chunk of article text to summarise.
	Text string
	// SourceURL is optional metadata that helps the model reference the origin.
	SourceURL string
	// MaxLength and MinLength bound the summary length in model tokens.
	// The bounds are soft: backends pass them on as hints.
	MaxLength int
	MinLength int
}

// Bounds returns the effective length bounds. MaxLength <= 0 selects
// DefaultMaxLength; MinLength is clamped to [0, max].
func (in Input) Bounds() (minLength int, maxLength int) {
	maxLength = in.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	minLength = max(in.MinLength, 0)
	minLength = min(minLength, maxLength)

	return minLength, maxLength
}

// Summarizer produces a single summary for a given input text. An empty
// summary with a nil error means the model produced no text for the chunk.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
