package summarizer

import (
	"fmt"
	"net/http"

	"newsbrief/internal/config"
)

// New builds the configured summarizer backend. HTTP backends share client.
func New(cfg config.Summarizer, client *http.Client) (Summarizer, error) {
	switch cfg.Backend {
	case config.SummarizerHuggingFace:
		s, err := NewHuggingFaceSummarizer(client, cfg.HFBaseURL, cfg.HFModel, cfg.HFAPIToken)
		if err != nil {
			return nil, fmt.Errorf("create huggingface summarizer: %w", err)
		}
		return s, nil
	case config.SummarizerOpenAI:
		return NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case config.SummarizerOllama:
		return NewOllamaSummarizer(client, cfg.OllamaBaseURL, cfg.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unsupported summarizer (backend = %s)", cfg.Backend)
	}
}
