package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"newsbrief/internal/domain"
)

// OllamaSummarizer prompts a local model through Ollama's generate endpoint.
type OllamaSummarizer struct {
	client  *http.Client
	baseURL string
	model   string
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllamaSummarizer(client *http.Client, baseURL string, model string) *OllamaSummarizer {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &OllamaSummarizer{
		client:  client,
		baseURL: baseURL,
		model:   strings.TrimSpace(model),
	}
}

func (s *OllamaSummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", domain.SummarizationError(errors.New("input is empty"))
	}

	minLength, maxLength := input.Bounds()

	var out ollamaResponse
	err := postJSON(ctx, s.client, s.baseURL+"/api/generate", nil, ollamaRequest{
		Model:  s.model,
		System: systemPrompt(minLength, maxLength),
		Prompt: userPrompt(text, input.SourceURL),
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0,
			NumPredict:  int(baseMaxOutputTokens(maxLength)),
		},
	}, &out)
	if err != nil {
		return "", domain.SummarizationError(fmt.Errorf("call ollama (model = %s): %w", s.model, err))
	}

	return strings.TrimSpace(out.Response), nil
}
