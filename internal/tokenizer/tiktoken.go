package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Encodings are read from the ranks embedded in the binary, never downloaded.
var useOfflineLoader = sync.OnceFunc(func() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
})

var specialTokens = []string{
	tiktoken.ENDOFTEXT,
	tiktoken.FIM_PREFIX,
	tiktoken.FIM_MIDDLE,
	tiktoken.FIM_SUFFIX,
	tiktoken.ENDOFPROMPT,
}

// Tiktoken is the OpenAI BPE tokenizer. Special tokens are encoded as
// ordinary text, so decoded output never contains control tokens.
type Tiktoken struct {
	enc     *tiktoken.Tiktoken
	special map[int]struct{}
}

func LoadTiktoken(encoding string) (*Tiktoken, error) {
	encoding = strings.TrimSpace(encoding)
	if encoding == "" {
		encoding = tiktoken.MODEL_CL100K_BASE
	}

	useOfflineLoader()

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding (name = %s): %w", encoding, err)
	}

	return &Tiktoken{enc: enc, special: specialIDs(enc)}, nil
}

// specialIDs collects the ids of the special tokens the encoding defines.
// A token string the encoding does not reserve encodes to several ordinary ids.
func specialIDs(enc *tiktoken.Tiktoken) map[int]struct{} {
	ids := make(map[int]struct{}, len(specialTokens))

	for _, token := range specialTokens {
		encoded := enc.Encode(token, []string{token}, nil)
		if len(encoded) == 1 {
			ids[encoded[0]] = struct{}{}
		}
	}

	return ids
}

func (t *Tiktoken) Encode(text string) ([]int, error) {
	if text == "" {
		return nil, nil
	}

	return t.enc.EncodeOrdinary(text), nil
}

func (t *Tiktoken) Decode(ids []int) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	kept := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := t.special[id]; !ok {
			kept = append(kept, id)
		}
	}

	return t.enc.Decode(kept), nil
}
