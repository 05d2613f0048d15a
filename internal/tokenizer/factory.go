package tokenizer

import (
	"fmt"

	"newsbrief/internal/config"
)

// New returns a lazily loaded tokenizer for the configured backend. Artifacts
// are not touched until first use.
func New(cfg config.Tokenizer) (*Lazy, error) {
	switch cfg.Backend {
	case config.TokenizerHF:
		return NewLazy(config.TokenizerHF, func() (Tokenizer, error) {
			return LoadHF(cfg.File, cfg.Model)
		}), nil
	case config.TokenizerTiktoken:
		return NewLazy(config.TokenizerTiktoken, func() (Tokenizer, error) {
			return LoadTiktoken(cfg.Encoding)
		}), nil
	default:
		return nil, fmt.Errorf("unsupported tokenizer (backend = %s)", cfg.Backend)
	}
}
