package dataset

import (
	"fmt"

	"github.com/mirceamironenco/tunekit/components/tokenizer"
)

// PackedDataset concatenates the underlying samples into fixed-length
// sequences of the tokenizer's max length, so no step wastes padding.
type PackedDataset struct {
	inner   Dataset
	samples []Sample
}

// pack greedily fills sequences of length maxSeqLen from the inner dataset,
// splitting samples across pack boundaries.
func pack(inner Dataset) (*PackedDataset, error) {
	maxSeqLen := inner.Tokenizer().MaxSeqLen()
	if maxSeqLen <= 0 {
		return nil, fmt.Errorf("packing requires a tokenizer with max_seq_len set")
	}

	p := &PackedDataset{inner: inner}
	curTokens := make([]int, 0, maxSeqLen)
	curLabels := make([]int, 0, maxSeqLen)
	flush := func() {
		if len(curTokens) == 0 {
			return
		}
		p.samples = append(p.samples, Sample{
			Tokens: append([]int{}, curTokens...),
			Labels: append([]int{}, curLabels...),
		})
		curTokens = curTokens[:0]
		curLabels = curLabels[:0]
	}

	for i := 0; i < inner.Len(); i++ {
		s := inner.At(i)
		for off := 0; off < len(s.Tokens); {
			room := maxSeqLen - len(curTokens)
			if room == 0 {
				flush()
				continue
			}
			n := len(s.Tokens) - off
			if n > room {
				n = room
			}
			curTokens = append(curTokens, s.Tokens[off:off+n]...)
			curLabels = append(curLabels, s.Labels[off:off+n]...)
			off += n
		}
	}
	flush()
	return p, nil
}

// Len implements Dataset.
func (p *PackedDataset) Len() int { return len(p.samples) }

// At implements Dataset.
func (p *PackedDataset) At(i int) Sample { return p.samples[i] }

// Tokenizer implements Dataset.
func (p *PackedDataset) Tokenizer() tokenizer.Tokenizer { return p.inner.Tokenizer() }
