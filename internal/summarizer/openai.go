package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"newsbrief/internal/domain"
)

const (
	minMaxOutputTokens   int64 = 256
	limitMaxOutputTokens int64 = 2048
)

// OpenAISummarizer calls OpenAI's Responses API to produce summaries.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

// NewOpenAISummarizer builds a new summarizer instance. Extra options are
// appended after the API key, so they can point the client elsewhere.
func NewOpenAISummarizer(
	apiKey string,
	model string,
	opts ...option.RequestOption,
) *OpenAISummarizer {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &OpenAISummarizer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Summarize produces a summary of one chunk.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	summary, err := s.summarize(ctx, input)
	if err != nil {
		return "", domain.SummarizationError(err)
	}

	return summary, nil
}

func (s *OpenAISummarizer) summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", errors.New("input is empty")
	}

	minLength, maxLength := input.Bounds()
	maxOutputTokens := baseMaxOutputTokens(maxLength)

	for {
		resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           s.model,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Temperature:     openai.Float(0),
			Instructions:    openai.String(systemPrompt(minLength, maxLength)),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(userPrompt(text, input.SourceURL)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		return strings.TrimSpace(resp.OutputText()), nil
	}
}

// baseMaxOutputTokens leaves headroom over the requested summary length.
func baseMaxOutputTokens(maxLength int) int64 {
	return min(max(int64(maxLength)*2, minMaxOutputTokens), limitMaxOutputTokens)
}
