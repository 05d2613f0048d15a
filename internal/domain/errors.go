package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindFetch         ErrorKind = "fetch"
	KindTokenization  ErrorKind = "tokenization"
	KindSummarization ErrorKind = "summarization"
)

// Error tags a pipeline failure with the boundary it crossed.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind) + " error"
	}

	return fmt.Sprintf("%s error: %s", e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}

	var tagged *Error
	if errors.As(err, &tagged) && tagged.Kind == kind {
		return err
	}

	return &Error{Kind: kind, Err: err}
}

func ValidationError(err error) error    { return NewError(KindValidation, err) }
func FetchError(err error) error         { return NewError(KindFetch, err) }
func TokenizationError(err error) error  { return NewError(KindTokenization, err) }
func SummarizationError(err error) error { return NewError(KindSummarization, err) }

// KindOf returns the kind of the outermost tagged error in the chain,
// or an empty kind for untagged errors.
func KindOf(err error) ErrorKind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}

	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// UserMessage renders the single message shown to a user for a failed request.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var tagged *Error
	if !errors.As(err, &tagged) {
		return fmt.Sprintf("Failed to summarize the article. Error: %s", err.Error())
	}

	cause := err.Error()
	if tagged.Err != nil {
		cause = tagged.Err.Error()
	}

	switch tagged.Kind {
	case KindValidation:
		return cause
	case KindFetch:
		return fmt.Sprintf("Failed to fetch the article. Error: %s", cause)
	case KindTokenization:
		return fmt.Sprintf("Failed to prepare the article for the model. Error: %s", cause)
	case KindSummarization:
		return fmt.Sprintf("Failed to summarize the article. Error: %s", cause)
	default:
		return fmt.Sprintf("Failed to summarize the article. Error: %s", cause)
	}
}
