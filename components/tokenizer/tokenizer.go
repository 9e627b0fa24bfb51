// Package tokenizer provides the tokenizer components of the launcher: a
// vocabulary-file tokenizer with greedy longest-match encoding and byte
// fallback, plus the Llama2 wrapper that fixes its special token ids.
package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Tokenizer is the contract the dataset and recipe layers program against.
type Tokenizer interface {
	// Encode converts text into token ids, optionally wrapping it in the
	// special begin/end markers.
	Encode(text string, addBOS, addEOS bool) []int
	// Decode converts token ids back into text. Unknown ids render as the
	// unknown piece.
	Decode(ids []int) string
	// VocabSize returns the number of pieces, special tokens included.
	VocabSize() int
	// MaxSeqLen returns the configured truncation length, or 0 when
	// unlimited.
	MaxSeqLen() int
}

// Special token ids, matching the SentencePiece export convention.
const (
	UnkID = 0
	BosID = 1
	EosID = 2
)

const unkPiece = "<unk>"

// SentencePiece is a vocabulary-file tokenizer. Encoding is greedy
// longest-match over the loaded pieces with a per-byte fallback for text
// outside the vocabulary.
type SentencePiece struct {
	pieces    []string
	ids       map[string]int
	maxPiece  int
	maxSeqLen int
	bosID     int
	eosID     int
}

// LoadSentencePiece reads a vocabulary file (one piece per line, optionally
// followed by a tab and a score, which is ignored) and builds a tokenizer
// over it. The first three ids are reserved for unk/bos/eos regardless of
// file content.
func LoadSentencePiece(path string, maxSeqLen int) (*SentencePiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tokenizer vocabulary: %w", err)
	}
	defer f.Close()

	sp := &SentencePiece{
		pieces:    []string{unkPiece, "<s>", "</s>"},
		ids:       make(map[string]int),
		maxSeqLen: maxSeqLen,
		bosID:     BosID,
		eosID:     EosID,
	}
	for i, p := range sp.pieces {
		sp.ids[p] = i
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		piece, _, _ := strings.Cut(scanner.Text(), "\t")
		if piece == "" {
			continue
		}
		if _, exists := sp.ids[piece]; exists {
			continue
		}
		sp.ids[piece] = len(sp.pieces)
		sp.pieces = append(sp.pieces, piece)
		if len(piece) > sp.maxPiece {
			sp.maxPiece = len(piece)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading tokenizer vocabulary: %w", err)
	}
	if len(sp.pieces) == 3 {
		return nil, fmt.Errorf("tokenizer vocabulary %s is empty", path)
	}

	return sp, nil
}

// Encode implements Tokenizer.
func (sp *SentencePiece) Encode(text string, addBOS, addEOS bool) []int {
	var ids []int
	if addBOS {
		ids = append(ids, sp.bosID)
	}

	for i := 0; i < len(text); {
		matched := false
		// Longest match first, capped by the longest known piece.
		max := sp.maxPiece
		if rem := len(text) - i; rem < max {
			max = rem
		}
		for l := max; l >= 1; l-- {
			if id, ok := sp.ids[text[i:i+l]]; ok {
				ids = append(ids, id)
				i += l
				matched = true
				break
			}
		}
		if !matched {
			// Byte fallback: unknown bytes map into the space directly
			// after the explicit vocabulary.
			ids = append(ids, len(sp.pieces)+int(text[i]))
			i++
		}
	}

	if addEOS {
		ids = append(ids, sp.eosID)
	}
	if sp.maxSeqLen > 0 && len(ids) > sp.maxSeqLen {
		ids = ids[:sp.maxSeqLen]
	}
	return ids
}

// Decode implements Tokenizer.
func (sp *SentencePiece) Decode(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		switch {
		case id == sp.bosID || id == sp.eosID:
			// Special markers do not render.
		case id >= 0 && id < len(sp.pieces):
			sb.WriteString(sp.pieces[id])
		case id >= len(sp.pieces) && id < len(sp.pieces)+256:
			sb.WriteByte(byte(id - len(sp.pieces)))
		default:
			sb.WriteString(unkPiece)
		}
	}
	return sb.String()
}

// VocabSize implements Tokenizer. The byte-fallback range counts.
func (sp *SentencePiece) VocabSize() int { return len(sp.pieces) + 256 }

// MaxSeqLen implements Tokenizer.
func (sp *SentencePiece) MaxSeqLen() int { return sp.maxSeqLen }
