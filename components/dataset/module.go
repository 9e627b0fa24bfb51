package dataset

import (
	"context"
	"fmt"

	"github.com/mirceamironenco/tunekit/components/tokenizer"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// grammarTemplate matches the grammar-correction prompt format the
// "datasets.grammar" preset trains against.
const grammarTemplate = "Correct this to standard English: {input}\n---\nCorrected: "

// Input defines the arguments shared by the dataset factories.
type Input struct {
	Tokenizer       tokenizer.Tokenizer `cfg:"tokenizer"`
	Source          string              `cfg:"source"`
	ColumnMap       map[string]string   `cfg:"column_map,optional"`
	TrainOnInput    bool                `cfg:"train_on_input,optional"`
	NewSystemPrompt string              `cfg:"new_system_prompt,optional"`
	Packed          bool                `cfg:"packed,optional"`
}

func build(ctx context.Context, input *Input, template string) (Dataset, error) {
	if input.Source == "" {
		return nil, fmt.Errorf("source cannot be empty")
	}
	ds, err := loadSFT(ctx, input.Tokenizer, sftOptions{
		source:          input.Source,
		columnMap:       input.ColumnMap,
		trainOnInput:    input.TrainOnInput,
		newSystemPrompt: input.NewSystemPrompt,
		promptTemplate:  template,
	})
	if err != nil {
		return nil, err
	}
	if input.Packed {
		return pack(ds)
	}
	return ds, nil
}

// NewSFT is the factory behind "datasets.sft".
func NewSFT(ctx context.Context, input *Input) (Dataset, error) {
	return build(ctx, input, "")
}

// NewGrammar is the factory behind "datasets.grammar". It is the SFT
// loader with the grammar-correction prompt template applied to every
// sample.
func NewGrammar(ctx context.Context, input *Input) (Dataset, error) {
	return build(ctx, input, grammarTemplate)
}

// PackedInput defines the arguments for "datasets.packed".
type PackedInput struct {
	Dataset Dataset `cfg:"dataset"`
}

// NewPacked is the factory behind "datasets.packed". It wraps an already
// built dataset and repacks its samples into full-length sequences.
func NewPacked(ctx context.Context, input *PackedInput) (Dataset, error) {
	return pack(input.Dataset)
}

// Register registers the dataset factories with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("datasets.sft", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewSFT,
	})
	r.Register("datasets.grammar", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewGrammar,
	})
	r.Register("datasets.packed", &registry.Factory{
		NewInput: func() any { return new(PackedInput) },
		Fn:       NewPacked,
	})
}
