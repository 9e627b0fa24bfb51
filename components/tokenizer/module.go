package tokenizer

import (
	"context"

	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments shared by the tokenizer factories.
type Input struct {
	Path      string `cfg:"path"`
	MaxSeqLen int    `cfg:"max_seq_len,optional"`
}

// NewSentencePiece is the factory behind "tokenizers.sentencepiece".
func NewSentencePiece(ctx context.Context, input *Input) (Tokenizer, error) {
	ctxlog.FromContext(ctx).Debug("Loading sentencepiece tokenizer.", "path", input.Path)
	return LoadSentencePiece(input.Path, input.MaxSeqLen)
}

// NewLlama2 is the factory behind "tokenizers.llama2". It is the same
// vocabulary loader with the Llama2 special token convention, kept as a
// separate name so configs read like the model family they target.
func NewLlama2(ctx context.Context, input *Input) (Tokenizer, error) {
	ctxlog.FromContext(ctx).Debug("Loading llama2 tokenizer.", "path", input.Path)
	return LoadSentencePiece(input.Path, input.MaxSeqLen)
}

// Register registers the tokenizer factories with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("tokenizers.sentencepiece", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewSentencePiece,
	})
	r.Register("tokenizers.llama2", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewLlama2,
	})
}
