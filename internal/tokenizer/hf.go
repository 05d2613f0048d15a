package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	hftokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

const tokenizerFileName = "tokenizer.json"

// HF wraps a HuggingFace tokenizer.json pipeline (BART byte-level BPE by default).
type HF struct {
	tk *hftokenizer.Tokenizer
}

// LoadHF reads tokenizer.json from file, or resolves it for model through
// the local HuggingFace cache when file is empty.
func LoadHF(file string, model string) (*HF, error) {
	file = strings.TrimSpace(file)
	model = strings.TrimSpace(model)

	if file == "" {
		if model == "" {
			return nil, errors.New("tokenizer file and model are both empty")
		}

		resolved, err := hftokenizer.CachedPath(model, tokenizerFileName)
		if err != nil {
			return nil, fmt.Errorf("resolve %s for %s: %w", tokenizerFileName, model, err)
		}
		file = resolved
	}

	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("stat tokenizer file: %w", err)
	}

	tk, err := pretrained.FromFile(file)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer (file = %s): %w", file, err)
	}

	return &HF{tk: tk}, nil
}

func (h *HF) Encode(text string) ([]int, error) {
	if text == "" {
		return nil, nil
	}

	encoding, err := h.tk.EncodeSingle(text, false)
	if err != nil {
		return nil, err
	}

	return encoding.Ids, nil
}

func (h *HF) Decode(ids []int) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	return h.tk.Decode(ids, true), nil
}
