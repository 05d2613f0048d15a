package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"newsbrief/internal/domain"
)

// HuggingFaceSummarizer runs a summarization model (facebook/bart-large-cnn by
// default) on the HuggingFace Inference API.
type HuggingFaceSummarizer struct {
	client   *http.Client
	endpoint string
	token    string
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfSummary struct {
	SummaryText string `json:"summary_text"`
}

func NewHuggingFaceSummarizer(
	client *http.Client,
	baseURL string,
	model string,
	token string,
) (*HuggingFaceSummarizer, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	model = strings.Trim(strings.TrimSpace(model), "/")
	if baseURL == "" || model == "" {
		return nil, errors.New("base url and model are required")
	}

	endpoint, err := url.JoinPath(baseURL, model)
	if err != nil {
		return nil, fmt.Errorf("build endpoint: %w", err)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &HuggingFaceSummarizer{
		client:   client,
		endpoint: endpoint,
		token:    strings.TrimSpace(token),
	}, nil
}

func (s *HuggingFaceSummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", domain.SummarizationError(errors.New("input is empty"))
	}

	minLength, maxLength := input.Bounds()

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	var out []hfSummary
	err := postJSON(ctx, s.client, s.endpoint, header, hfRequest{
		Inputs: text,
		Parameters: hfParameters{
			MaxLength: maxLength,
			MinLength: minLength,
			DoSample:  false,
		},
		Options: hfOptions{WaitForModel: true},
	}, &out)
	if err != nil {
		return "", domain.SummarizationError(fmt.Errorf("call inference api: %w", err))
	}

	if len(out) == 0 {
		return "", domain.SummarizationError(errors.New("inference api returned no summaries"))
	}

	// Very tight bounds can decode to nothing; that is an empty fragment, not a failure.
	return strings.TrimSpace(out[0].SummaryText), nil
}
