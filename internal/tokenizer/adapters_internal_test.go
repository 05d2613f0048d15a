package tokenizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sugarme/tokenizer/pretokenizer"
)

const (
	bartBOS = 0
	bartPad = 1
	bartEOS = 2
	bartUnk = 3

	// byteOffset is the id of byte 0 in the fixture vocabulary.
	byteOffset = 4
)

// writeBARTFixture writes a byte-level BPE tokenizer.json shaped like BART's:
// <s>, <pad>, </s>, <unk> followed by one token per byte and no merges.
func writeBARTFixture(t *testing.T) string {
	t.Helper()

	vocab := map[string]int{
		"<s>":   bartBOS,
		"<pad>": bartPad,
		"</s>":  bartEOS,
		"<unk>": bartUnk,
	}
	for b := range 256 {
		vocab[pretokenizer.BytesChar[uint8(b)]] = byteOffset + b
	}

	addedTokens := make([]map[string]any, 0, 4)
	for _, token := range []string{"<s>", "<pad>", "</s>", "<unk>"} {
		addedTokens = append(addedTokens, map[string]any{
			"id":          vocab[token],
			"content":     token,
			"single_word": false,
			"lstrip":      false,
			"rstrip":      false,
			"normalized":  false,
			"special":     true,
		})
	}

	data, err := json.Marshal(map[string]any{
		"version":      "1.0",
		"added_tokens": addedTokens,
		"pre_tokenizer": map[string]any{
			"type":             "ByteLevel",
			"add_prefix_space": false,
			"trim_offsets":     true,
		},
		"post_processor": map[string]any{
			"type":             "RobertaProcessing",
			"sep":              []any{"</s>", bartEOS},
			"cls":              []any{"<s>", bartBOS},
			"trim_offsets":     true,
			"add_prefix_space": false,
		},
		"decoder": map[string]any{
			"type":             "ByteLevel",
			"add_prefix_space": false,
			"trim_offsets":     true,
		},
		"model": map[string]any{
			"type":   "BPE",
			"vocab":  vocab,
			"merges": []string{},
		},
	})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	file := filepath.Join(t.TempDir(), tokenizerFileName)
	if err = os.WriteFile(file, data, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	return file
}

// assertWindowsRejoin cuts ids at every position and checks that the decoded
// halves concatenate back to text, including cuts inside a multibyte rune.
func assertWindowsRejoin(t *testing.T, tk Tokenizer, ids []int, text string) {
	t.Helper()

	for cut := 1; cut < len(ids); cut++ {
		head, err := tk.Decode(ids[:cut])
		if err != nil {
			t.Fatalf("decode head at %d: %v", cut, err)
		}
		tail, err := tk.Decode(ids[cut:])
		if err != nil {
			t.Fatalf("decode tail at %d: %v", cut, err)
		}

		if head+tail != text {
			t.Fatalf("cut at %d: expected %q, got %q + %q", cut, text, head, tail)
		}
	}
}

func TestHFEncodeAddsNoSpecialTokens(t *testing.T) {
	tk, err := LoadHF(writeBARTFixture(t), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := "Café prices rose 3% in 日本."

	ids, err := tk.Encode(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ids) != len(text) {
		t.Fatalf("expected one id per byte, got %d ids for %d bytes", len(ids), len(text))
	}
	for i, id := range ids {
		if id < byteOffset {
			t.Fatalf("expected no special token, got id %d at %d", id, i)
		}
	}
}

func TestHFDecodeDropsSpecialTokens(t *testing.T) {
	tk, err := LoadHF(writeBARTFixture(t), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := "The council met on Monday."

	ids, err := tk.Encode(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrapped := slices.Concat([]int{bartBOS}, ids, []int{bartEOS, bartPad})

	got, err := tk.Decode(wrapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != text {
		t.Fatalf("expected %q, got %q", text, got)
	}
}

func TestHFWindowsRejoinAcrossRunes(t *testing.T) {
	tk, err := LoadHF(writeBARTFixture(t), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := "Zürich – 東京 talks résumé"

	ids, err := tk.Encode(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertWindowsRejoin(t, tk, ids, text)
}

func TestLoadHFMissingArtifacts(t *testing.T) {
	if _, err := LoadHF("", ""); err == nil {
		t.Fatalf("expected error when neither file nor model is set")
	}

	if _, err := LoadHF(filepath.Join(t.TempDir(), "missing.json"), ""); err == nil {
		t.Fatalf("expected error for a missing tokenizer file")
	}
}

func TestTiktokenEncodeTreatsSpecialTokensAsText(t *testing.T) {
	tk, err := LoadTiktoken(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := "Breaking <|endoftext|> news"

	ids, err := tk.Encode(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for id := range tk.special {
		if slices.Contains(ids, id) {
			t.Fatalf("expected no special token ids, got %v", ids)
		}
	}

	got, err := tk.Decode(ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != text {
		t.Fatalf("expected %q, got %q", text, got)
	}
}

func TestTiktokenDecodeDropsSpecialTokens(t *testing.T) {
	tk, err := LoadTiktoken(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tk.special) == 0 {
		t.Fatalf("expected cl100k_base to define special tokens")
	}

	text := "Markets closed higher."

	ids, err := tk.Encode(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrapped := ids
	for id := range tk.special {
		wrapped = slices.Concat([]int{id}, wrapped, []int{id})
	}

	got, err := tk.Decode(wrapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != text {
		t.Fatalf("expected %q, got %q", text, got)
	}
}

func TestTiktokenWindowsRejoinAcrossRunes(t *testing.T) {
	tk, err := LoadTiktoken(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := "Zürich – 東京 talks résumé 🎉"

	ids, err := tk.Encode(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertWindowsRejoin(t, tk, ids, text)
}
