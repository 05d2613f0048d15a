package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsbrief/internal/domain"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/runner"
)

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (domain.Article, error)
}

type Pipeline interface {
	Run(ctx context.Context, text string, sourceURL string) (pipeline.Output, error)
}

// Queue serializes pipeline runs across concurrent callers.
type Queue interface {
	Do(ctx context.Context, job runner.Job) error
}

// Service is the single entry point shared by the web UI, the Telegram bot
// and the MCP tool. It keeps no state between calls.
type Service struct {
	fetcher  Fetcher
	pipeline Pipeline
	queue    Queue
	log      *slog.Logger
}

func New(
	fetcher Fetcher,
	p Pipeline,
	queue Queue,
	log *slog.Logger,
) *Service {
	return &Service{
		fetcher:  fetcher,
		pipeline: p,
		queue:    queue,
		log:      log,
	}
}

// Summarize validates rawURL, fetches the article and summarizes its body.
// Invalid input fails before any network call.
func (s *Service) Summarize(ctx context.Context, rawURL string) (domain.Result, error) {
	startedAt := time.Now()

	articleURL, err := ValidateURL(rawURL)
	if err != nil {
		return domain.Result{}, err
	}

	article, err := s.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return domain.Result{}, domain.FetchError(fmt.Errorf("fetch article: %w", err))
	}

	var out pipeline.Output
	err = s.queue.Do(ctx, func(ctx context.Context) error {
		var runErr error
		out, runErr = s.pipeline.Run(ctx, article.Body, articleURL)
		return runErr
	})
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.SummarizationError(err)
		}
		return domain.Result{}, fmt.Errorf("summarize article: %w", err)
	}

	result := domain.Result{
		Article: article,
		Summary: out.Summary,
		Chunks:  out.Chunks,
		Elapsed: time.Since(startedAt),
	}

	s.log.InfoContext(ctx, "Request served",
		"url", articleURL,
		"title", article.Title,
		"chunks", result.Chunks,
		"elapsed", result.Elapsed)

	return result, nil
}
