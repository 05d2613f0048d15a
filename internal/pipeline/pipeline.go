package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"newsbrief/internal/domain"
	"newsbrief/internal/summarizer"
)

// minAdaptiveMaxLength is the smallest max_length adaptive bounds send. The
// decoder start and BOS tokens count against max_length, so a tail chunk of a
// token or two would otherwise decode to nothing.
const minAdaptiveMaxLength = 16

// Chunker splits article text into token windows.
type Chunker interface {
	Chunk(text string, maxTokens int) ([]domain.Chunk, error)
}

type Options struct {
	MaxTokens int
	MaxLength int
	MinLength int
	// AdaptiveBounds caps the summary length of chunks shorter than MaxLength
	// tokens at the chunk length.
	AdaptiveBounds bool
	// Workers > 1 summarizes chunks concurrently. The summarizer must be
	// safe for concurrent use.
	Workers int
}

// Output is the result of one pipeline run.
type Output struct {
	Summary string
	Chunks  int
}

// Pipeline runs chunk, summarize and concatenate over one article body.
type Pipeline struct {
	log        *slog.Logger
	chunker    Chunker
	summarizer summarizer.Summarizer
	opts       Options
}

func New(
	log *slog.Logger,
	chunker Chunker,
	s summarizer.Summarizer,
	opts Options,
) *Pipeline {
	if opts.MaxLength <= 0 {
		opts.MaxLength = summarizer.DefaultMaxLength
	}
	if opts.MinLength < 0 {
		opts.MinLength = 0
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	return &Pipeline{
		log:        log,
		chunker:    chunker,
		summarizer: s,
		opts:       opts,
	}
}

// SummarizeArticle returns the summary of text: one fragment per chunk,
// joined with single spaces in chunk order. Any chunk failure fails the
// whole call and no partial summary is returned.
func (p *Pipeline) SummarizeArticle(ctx context.Context, text string) (string, error) {
	out, err := p.Run(ctx, text, "")
	if err != nil {
		return "", err
	}

	return out.Summary, nil
}

// Run is SummarizeArticle with the source url passed on to the summarizer
// and the chunk count reported.
func (p *Pipeline) Run(ctx context.Context, text string, sourceURL string) (Output, error) {
	startedAt := time.Now()

	chunks, err := p.chunker.Chunk(text, p.opts.MaxTokens)
	if err != nil {
		return Output{}, fmt.Errorf("chunk text: %w", err)
	}

	if len(chunks) == 0 {
		p.log.InfoContext(ctx, "Article text is empty, nothing to summarize",
			"url", sourceURL)
		return Output{}, nil
	}

	var fragments []string
	if p.opts.Workers > 1 && len(chunks) > 1 {
		fragments, err = p.summarizeParallel(ctx, chunks, sourceURL)
	} else {
		fragments, err = p.summarizeSequential(ctx, chunks, sourceURL)
	}
	if err != nil {
		return Output{}, err
	}

	summary := joinFragments(fragments)

	p.log.InfoContext(ctx, "Article summarized",
		"url", sourceURL,
		"chunks", len(chunks),
		"summaryLength", len(summary),
		"elapsed", time.Since(startedAt))

	return Output{Summary: summary, Chunks: len(chunks)}, nil
}

func (p *Pipeline) summarizeSequential(
	ctx context.Context,
	chunks []domain.Chunk,
	sourceURL string,
) ([]string, error) {
	fragments := make([]string, len(chunks))

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, domain.SummarizationError(fmt.Errorf("summarize chunk %d: %w", chunk.Index, err))
		}

		fragment, err := p.summarizeChunk(ctx, chunk, sourceURL)
		if err != nil {
			return nil, err
		}
		fragments[i] = fragment
	}

	return fragments, nil
}

// summarizeParallel fans chunks out to a bounded worker pool. Workers write
// into their chunk's slot, so fragment order matches chunk order. The first
// failure cancels the remaining chunks.
func (p *Pipeline) summarizeParallel(
	ctx context.Context,
	chunks []domain.Chunk,
	sourceURL string,
) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerCount := min(p.opts.Workers, len(chunks))
	fragments := make([]string, len(chunks))

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()

		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	tasks := make(chan int)
	var wg sync.WaitGroup

	for range workerCount {
		wg.Go(func() {
			for i := range tasks {
				fragment, err := p.summarizeChunk(ctx, chunks[i], sourceURL)
				if err != nil {
					fail(err)
					continue
				}
				fragments[i] = fragment
			}
		})
	}

dispatch:
	for i := range chunks {
		select {
		case tasks <- i:
		case <-ctx.Done():
			break dispatch
		}
	}

	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.SummarizationError(fmt.Errorf("summarize chunks: %w", err))
	}

	return fragments, nil
}

func (p *Pipeline) summarizeChunk(
	ctx context.Context,
	chunk domain.Chunk,
	sourceURL string,
) (string, error) {
	minLength, maxLength := p.bounds(chunk)

	fragment, err := p.summarizer.Summarize(ctx, summarizer.Input{
		Text:      chunk.Text,
		SourceURL: sourceURL,
		MaxLength: maxLength,
		MinLength: minLength,
	})
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to summarize chunk",
			"error", err,
			"url", sourceURL,
			"chunk", chunk.Index,
			"tokens", chunk.Len())
		return "", domain.SummarizationError(fmt.Errorf("summarize chunk %d: %w", chunk.Index, err))
	}

	p.log.DebugContext(ctx, "Chunk summarized",
		"url", sourceURL,
		"chunk", chunk.Index,
		"tokens", chunk.Len(),
		"maxLength", maxLength,
		"minLength", minLength)

	return fragment, nil
}

// bounds returns the length bounds for one chunk.
func (p *Pipeline) bounds(chunk domain.Chunk) (minLength int, maxLength int) {
	minLength, maxLength = p.opts.MinLength, p.opts.MaxLength

	if p.opts.AdaptiveBounds && chunk.Len() > 0 && chunk.Len() < maxLength {
		maxLength = max(chunk.Len(), min(minAdaptiveMaxLength, maxLength))
		minLength = min(minLength, maxLength/2)
	}

	return min(minLength, maxLength), maxLength
}

// joinFragments joins non-empty fragments with single spaces in chunk order.
func joinFragments(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if fragment = strings.TrimSpace(fragment); fragment != "" {
			kept = append(kept, fragment)
		}
	}

	return strings.Join(kept, " ")
}
