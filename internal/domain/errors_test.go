package domain_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"newsbrief/internal/domain"
)

func TestKindOfSurvivesWrapping(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("summarize article: %w", domain.FetchError(base))

	if got := domain.KindOf(err); got != domain.KindFetch {
		t.Fatalf("unexpected kind: got %q want %q", got, domain.KindFetch)
	}

	if !errors.Is(err, base) {
		t.Fatalf("expected tagged error to unwrap to its cause")
	}
}

func TestKindOfUntagged(t *testing.T) {
	if got := domain.KindOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty kind for untagged error, got %q", got)
	}
}

func TestNewErrorNil(t *testing.T) {
	if err := domain.SummarizationError(nil); err != nil {
		t.Fatalf("expected nil for nil cause, got %v", err)
	}
}

func TestNewErrorDoesNotDoubleTag(t *testing.T) {
	first := domain.TokenizationError(errors.New("vocab missing"))
	second := domain.TokenizationError(first)

	if first != second {
		t.Fatalf("expected same-kind tagging to be idempotent")
	}
}

func TestUserMessageDistinguishesValidation(t *testing.T) {
	validation := domain.UserMessage(domain.ValidationError(errors.New("Invalid URL format.")))
	if validation != "Invalid URL format." {
		t.Fatalf("unexpected validation message: %q", validation)
	}

	failure := domain.UserMessage(domain.SummarizationError(errors.New("out of memory")))
	if !strings.HasPrefix(failure, "Failed to summarize the article.") {
		t.Fatalf("unexpected failure message: %q", failure)
	}

	if !strings.Contains(failure, "out of memory") {
		t.Fatalf("expected failure message to carry the cause, got %q", failure)
	}
}

func TestChunkLen(t *testing.T) {
	c := domain.Chunk{Start: 1024, End: 2048}
	if c.Len() != 1024 {
		t.Fatalf("unexpected chunk length: %d", c.Len())
	}
}
