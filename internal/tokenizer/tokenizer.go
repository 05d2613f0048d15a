package tokenizer

import (
	"fmt"
	"sync"

	"newsbrief/internal/domain"
)

// Tokenizer converts text to token ids and back under a fixed vocabulary.
//
// Encode never truncates and never adds special tokens. Decode drops special
// and control tokens from its output.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
}

// Loader builds the underlying tokenizer from its artifacts.
type Loader func() (Tokenizer, error)

// Lazy defers loading tokenizer artifacts until the first Encode or Decode.
// The loader runs at most once; its error is returned by every later call.
type Lazy struct {
	name string
	load func() (Tokenizer, error)
}

func NewLazy(name string, loader Loader) *Lazy {
	return &Lazy{
		name: name,
		load: sync.OnceValues(func() (Tokenizer, error) {
			tk, err := loader()
			if err != nil {
				return nil, domain.TokenizationError(fmt.Errorf("load %s tokenizer: %w", name, err))
			}
			if tk == nil {
				return nil, domain.TokenizationError(fmt.Errorf("load %s tokenizer: loader returned nil", name))
			}

			return tk, nil
		}),
	}
}

func (l *Lazy) Name() string {
	return l.name
}

// Warm forces the artifacts to load and reports the load error, if any.
func (l *Lazy) Warm() error {
	_, err := l.load()
	return err
}

func (l *Lazy) Encode(text string) ([]int, error) {
	tk, err := l.load()
	if err != nil {
		return nil, err
	}

	ids, err := tk.Encode(text)
	if err != nil {
		return nil, domain.TokenizationError(fmt.Errorf("encode: %w", err))
	}

	return ids, nil
}

func (l *Lazy) Decode(ids []int) (string, error) {
	tk, err := l.load()
	if err != nil {
		return "", err
	}

	text, err := tk.Decode(ids)
	if err != nil {
		return "", domain.TokenizationError(fmt.Errorf("decode: %w", err))
	}

	return text, nil
}
