package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirceamironenco/tunekit/components/tokenizer"
)

// byteTok tokenizes one id per byte; deterministic and vocabulary-free.
type byteTok struct {
	maxSeqLen int
}

func (b *byteTok) Encode(text string, addBOS, addEOS bool) []int {
	var ids []int
	if addBOS {
		ids = append(ids, tokenizer.BosID)
	}
	for i := 0; i < len(text); i++ {
		ids = append(ids, 256+int(text[i]))
	}
	if addEOS {
		ids = append(ids, tokenizer.EosID)
	}
	if b.maxSeqLen > 0 && len(ids) > b.maxSeqLen {
		ids = ids[:b.maxSeqLen]
	}
	return ids
}

func (b *byteTok) Decode(ids []int) string {
	var out []byte
	for _, id := range ids {
		if id >= 256 {
			out = append(out, byte(id-256))
		}
	}
	return string(out)
}

func (b *byteTok) VocabSize() int { return 512 }
func (b *byteTok) MaxSeqLen() int { return b.maxSeqLen }

func writeJSONL(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewSFT_MasksPrompt(t *testing.T) {
	source := writeJSONL(t, `{"input": "ab", "output": "cd"}`)
	tok := &byteTok{}

	ds, err := NewSFT(context.Background(), &Input{Tokenizer: tok, Source: source})
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	s := ds.At(0)
	// BOS + "ab" from the prompt, "cd" + EOS from the output.
	require.Len(t, s.Tokens, 6)
	require.Len(t, s.Labels, 6)

	for i := 0; i < 3; i++ {
		assert.Equal(t, IgnoreIndex, s.Labels[i], "prompt positions are masked")
	}
	for i := 3; i < 6; i++ {
		assert.Equal(t, s.Tokens[i], s.Labels[i], "output positions train")
	}
}

func TestNewSFT_TrainOnInput(t *testing.T) {
	source := writeJSONL(t, `{"input": "ab", "output": "cd"}`)

	ds, err := NewSFT(context.Background(), &Input{
		Tokenizer:    &byteTok{},
		Source:       source,
		TrainOnInput: true,
	})
	require.NoError(t, err)

	s := ds.At(0)
	for i := range s.Tokens {
		assert.Equal(t, s.Tokens[i], s.Labels[i])
	}
}

func TestNewSFT_ColumnMap(t *testing.T) {
	source := writeJSONL(t, `{"sentence": "x", "correction": "y"}`)

	ds, err := NewSFT(context.Background(), &Input{
		Tokenizer: &byteTok{},
		Source:    source,
		ColumnMap: map[string]string{"input": "sentence", "output": "correction"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestNewSFT_Errors(t *testing.T) {
	tok := &byteTok{}

	testCases := []struct {
		name  string
		input *Input
	}{
		{name: "empty source", input: &Input{Tokenizer: tok}},
		{
			name:  "missing file",
			input: &Input{Tokenizer: tok, Source: "/does/not/exist.jsonl"},
		},
		{
			name:  "malformed row",
			input: &Input{Tokenizer: tok, Source: writeJSONL(t, `not json`)},
		},
		{
			name:  "missing column",
			input: &Input{Tokenizer: tok, Source: writeJSONL(t, `{"input": "a"}`)},
		},
		{
			name:  "no samples",
			input: &Input{Tokenizer: tok, Source: writeJSONL(t, "", "")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSFT(context.Background(), tc.input)
			assert.Error(t, err)
		})
	}
}

func TestNewGrammar_AppliesTemplate(t *testing.T) {
	source := writeJSONL(t, `{"input": "he go", "output": "he goes"}`)
	tok := &byteTok{}

	ds, err := NewGrammar(context.Background(), &Input{
		Tokenizer:    tok,
		Source:       source,
		TrainOnInput: true,
	})
	require.NoError(t, err)

	decoded := tok.Decode(ds.At(0).Tokens)
	assert.Contains(t, decoded, "Correct this to standard English: he go")
	assert.Contains(t, decoded, "Corrected: ")
	assert.Contains(t, decoded, "he goes")
}

func TestNewSFT_Packed(t *testing.T) {
	source := writeJSONL(t,
		`{"input": "aaaa", "output": "bbbb"}`,
		`{"input": "cccc", "output": "dddd"}`,
	)
	tok := &byteTok{maxSeqLen: 6}

	ds, err := NewSFT(context.Background(), &Input{
		Tokenizer: tok,
		Source:    source,
		Packed:    true,
	})
	require.NoError(t, err)

	for i := 0; i < ds.Len(); i++ {
		assert.LessOrEqual(t, len(ds.At(i).Tokens), 6)
	}

	total := 0
	for i := 0; i < ds.Len(); i++ {
		total += len(ds.At(i).Tokens)
	}
	assert.Equal(t, 12, total, "packing loses no tokens")
}

func TestNewSFT_PackedRequiresMaxSeqLen(t *testing.T) {
	source := writeJSONL(t, `{"input": "a", "output": "b"}`)

	_, err := NewSFT(context.Background(), &Input{
		Tokenizer: &byteTok{},
		Source:    source,
		Packed:    true,
	})
	assert.Error(t, err)
}

func TestNewPacked_WrapsDataset(t *testing.T) {
	source := writeJSONL(t, `{"input": "aaaa", "output": "bbbb"}`)
	tok := &byteTok{maxSeqLen: 4}

	inner, err := NewSFT(context.Background(), &Input{Tokenizer: tok, Source: source})
	require.NoError(t, err)

	packed, err := NewPacked(context.Background(), &PackedInput{Dataset: inner})
	require.NoError(t, err)
	assert.Same(t, tok, packed.Tokenizer())
	for i := 0; i < packed.Len(); i++ {
		assert.LessOrEqual(t, len(packed.At(i).Tokens), 4)
	}
}
