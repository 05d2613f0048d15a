package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"newsbrief/internal/chunker"
	"newsbrief/internal/domain"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/summarizer"
)

type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) ([]int, error) {
	ids := make([]int, 0, len(text))
	for _, r := range text {
		ids = append(ids, int(r))
	}

	return ids, nil
}

func (runeTokenizer) Decode(ids []int) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		b.WriteRune(rune(id))
	}

	return b.String(), nil
}

// letterSummarizer summarizes a chunk as its first letter and records inputs.
type letterSummarizer struct {
	mu     sync.Mutex
	inputs []summarizer.Input
	failOn string
	err    error
	delay  func(text string) time.Duration
}

func (s *letterSummarizer) Summarize(
	ctx context.Context,
	input summarizer.Input,
) (string, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()

	if s.delay != nil {
		select {
		case <-time.After(s.delay(input.Text)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	letter := input.Text[:1]
	if letter == s.failOn {
		return "", s.err
	}

	return strings.ToUpper(letter), nil
}

func (s *letterSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.inputs)
}

func newPipeline(t *testing.T, s summarizer.Summarizer, opts pipeline.Options) *pipeline.Pipeline {
	t.Helper()

	c, err := chunker.New(runeTokenizer{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return pipeline.New(slog.Default(), c, s, opts)
}

// lettersText builds n runs of size runes each: "aaa...bbb...ccc...".
func lettersText(n int, size int) string {
	var b strings.Builder
	for i := range n {
		b.WriteString(strings.Repeat(string(rune('a'+i)), size))
	}

	return b.String()
}

func TestSummarizeArticleCallsSummarizerPerChunk(t *testing.T) {
	stub := &letterSummarizer{}
	p := newPipeline(t, stub, pipeline.Options{MaxTokens: 1024, MaxLength: 130, MinLength: 30})

	text := strings.Repeat("a", 1024) + strings.Repeat("b", 1024) + strings.Repeat("c", 152)

	summary, err := p.SummarizeArticle(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := stub.callCount(); got != 3 {
		t.Fatalf("expected 3 summarizer calls, got %d", got)
	}
	if summary != "A B C" {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestSummarizeArticleShortText(t *testing.T) {
	stub := &letterSummarizer{}
	p := newPipeline(t, stub, pipeline.Options{MaxTokens: 1024, MaxLength: 130, MinLength: 30})

	summary, err := p.SummarizeArticle(context.Background(), "short article")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := stub.callCount(); got != 1 {
		t.Fatalf("expected one summarizer call, got %d", got)
	}
	if summary != "S" {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestSummarizeArticleEmptyText(t *testing.T) {
	stub := &letterSummarizer{}
	p := newPipeline(t, stub, pipeline.Options{MaxTokens: 1024})

	for _, text := range []string{"", "  \n "} {
		summary, err := p.SummarizeArticle(context.Background(), text)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary != "" {
			t.Fatalf("expected empty summary, got %q", summary)
		}
	}

	if got := stub.callCount(); got != 0 {
		t.Fatalf("expected no summarizer calls, got %d", got)
	}
}

func TestSummarizeArticleFailureIsAllOrNothing(t *testing.T) {
	boom := errors.New("inference backend unavailable")
	stub := &letterSummarizer{failOn: "b", err: boom}
	p := newPipeline(t, stub, pipeline.Options{MaxTokens: 10})

	summary, err := p.SummarizeArticle(context.Background(), lettersText(3, 10))
	if err == nil {
		t.Fatalf("expected error")
	}

	if summary != "" {
		t.Fatalf("expected no partial summary, got %q", summary)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}
	if !domain.IsKind(err, domain.KindSummarization) {
		t.Fatalf("expected summarization error, got %v", err)
	}
	if got := stub.callCount(); got != 2 {
		t.Fatalf("expected processing to stop at the failing chunk, got %d calls", got)
	}
}

func TestSummarizeArticleIsIdempotent(t *testing.T) {
	stub := &letterSummarizer{}
	p := newPipeline(t, stub, pipeline.Options{MaxTokens: 7})
	text := lettersText(5, 9)

	first, err := p.SummarizeArticle(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := p.SummarizeArticle(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatalf("expected identical summaries, got %q and %q", first, second)
	}
}

func TestSummarizeArticleParallelPreservesOrder(t *testing.T) {
	stub := &letterSummarizer{
		// Earlier chunks finish last.
		delay: func(text string) time.Duration {
			return time.Duration('f'-rune(text[0])) * 5 * time.Millisecond
		},
	}
	p := newPipeline(t, stub, pipeline.Options{MaxTokens: 10, Workers: 4})

	out, err := p.Run(context.Background(), lettersText(5, 10), "https://example.com/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Summary != "A B C D E" {
		t.Fatalf("unexpected summary: %q", out.Summary)
	}
	if out.Chunks != 5 {
		t.Fatalf("expected 5 chunks, got %d", out.Chunks)
	}
	for _, input := range stub.inputs {
		if input.SourceURL != "https://example.com/a" {
			t.Fatalf("expected source url to be passed on, got %q", input.SourceURL)
		}
	}
}

func TestSummarizeArticleParallelFailureCancelsRest(t *testing.T) {
	boom := errors.New("rate limited")
	stub := &letterSummarizer{
		failOn: "a",
		err:    boom,
		delay: func(text string) time.Duration {
			if text[0] == 'a' {
				return 0
			}
			return time.Minute
		},
	}
	p := newPipeline(t, stub, pipeline.Options{MaxTokens: 10, Workers: 3})

	done := make(chan error, 1)
	go func() {
		_, err := p.SummarizeArticle(context.Background(), lettersText(6, 10))
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("expected first failure to be reported, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("pipeline did not cancel pending chunks")
	}
}

func TestSummarizeArticleAdaptiveBounds(t *testing.T) {
	tests := []struct {
		name     string
		adaptive bool
		wantMax  int
		wantMin  int
	}{
		{name: "adaptive", adaptive: true, wantMax: 50, wantMin: 25},
		{name: "fixed", adaptive: false, wantMax: 130, wantMin: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &letterSummarizer{}
			p := newPipeline(t, stub, pipeline.Options{
				MaxTokens:      1024,
				MaxLength:      130,
				MinLength:      30,
				AdaptiveBounds: tt.adaptive,
			})

			if _, err := p.SummarizeArticle(context.Background(), strings.Repeat("x", 50)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			input := stub.inputs[0]
			if input.MaxLength != tt.wantMax || input.MinLength != tt.wantMin {
				t.Fatalf("expected bounds (%d, %d), got (%d, %d)",
					tt.wantMin, tt.wantMax, input.MinLength, input.MaxLength)
			}
		})
	}
}

// newBARTServer mimics the inference API for bart-large-cnn: a max_length of 2
// or less leaves no room past the decoder start and BOS tokens.
func newBARTServer(t *testing.T, bounds *[][2]int) *httptest.Server {
	t.Helper()

	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Inputs     string `json:"inputs"`
			Parameters struct {
				MaxLength int `json:"max_length"`
				MinLength int `json:"min_length"`
			} `json:"parameters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		mu.Lock()
		*bounds = append(*bounds, [2]int{req.Parameters.MaxLength, req.Parameters.MinLength})
		mu.Unlock()

		text := ""
		if req.Parameters.MaxLength > 2 {
			text = fmt.Sprintf("Summary of %d characters.", len(req.Inputs))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"summary_text": text}})
	}))
	t.Cleanup(server.Close)

	return server
}

func TestSummarizeArticleOneTokenTail(t *testing.T) {
	var bounds [][2]int
	server := newBARTServer(t, &bounds)

	s, err := summarizer.NewHuggingFaceSummarizer(server.Client(), server.URL, "facebook/bart-large-cnn", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := newPipeline(t, s, pipeline.Options{
		MaxTokens:      1024,
		MaxLength:      130,
		MinLength:      30,
		AdaptiveBounds: true,
	})

	out, err := p.Run(context.Background(), strings.Repeat("a", 1024)+"b", "https://example.com/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Chunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", out.Chunks)
	}
	if len(bounds) != 2 || bounds[0] != [2]int{130, 30} || bounds[1] != [2]int{16, 8} {
		t.Fatalf("unexpected bounds sent: %v", bounds)
	}
	if out.Summary != "Summary of 1024 characters. Summary of 1 characters." {
		t.Fatalf("unexpected summary: %q", out.Summary)
	}
}

func TestSummarizeArticleEmptyFragmentIsKept(t *testing.T) {
	var bounds [][2]int
	server := newBARTServer(t, &bounds)

	s, err := summarizer.NewHuggingFaceSummarizer(server.Client(), server.URL, "facebook/bart-large-cnn", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Fixed bounds of 2 make every chunk decode to nothing.
	p := newPipeline(t, s, pipeline.Options{MaxTokens: 10, MaxLength: 2, MinLength: 0})

	out, err := p.Run(context.Background(), lettersText(3, 10), "")
	if err != nil {
		t.Fatalf("expected empty model output not to fail the article, got %v", err)
	}
	if out.Summary != "" || out.Chunks != 3 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestSummarizeArticleSkipsEmptyFragments(t *testing.T) {
	stub := &letterSummarizer{failOn: "b"}
	p := newPipeline(t, stub, pipeline.Options{MaxTokens: 10})

	summary, err := p.SummarizeArticle(context.Background(), lettersText(3, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != "A C" {
		t.Fatalf("expected single spaces around an empty fragment, got %q", summary)
	}
}

func TestSummarizeArticleTokenizerFailure(t *testing.T) {
	c, err := chunker.New(brokenTokenizer{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stub := &letterSummarizer{}
	p := pipeline.New(slog.Default(), c, stub, pipeline.Options{})

	if _, err = p.SummarizeArticle(context.Background(), "text"); !domain.IsKind(err, domain.KindTokenization) {
		t.Fatalf("expected tokenization error, got %v", err)
	}
	if got := stub.callCount(); got != 0 {
		t.Fatalf("expected no summarizer calls, got %d", got)
	}
}

type brokenTokenizer struct{}

func (brokenTokenizer) Encode(string) ([]int, error) { return nil, errors.New("vocab missing") }
func (brokenTokenizer) Decode([]int) (string, error) { return "", errors.New("vocab missing") }
