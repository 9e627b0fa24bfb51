package model

import (
	"context"

	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the dense model cards. The 7B presets
// take no architecture arguments; the dimensions are fixed by the family.
type Input struct{}

// LoRAInput defines the arguments for the LoRA model cards.
type LoRAInput struct {
	AttnModules   []string `cfg:"lora_attn_modules"`
	ApplyToMLP    bool     `cfg:"apply_lora_to_mlp,optional"`
	ApplyToOutput bool     `cfg:"apply_lora_to_output,optional"`
	Rank          int      `cfg:"lora_rank,optional"`
	Alpha         float64  `cfg:"lora_alpha,optional"`
	Dropout       float64  `cfg:"lora_dropout,optional"`
	QuantizeBase  bool     `cfg:"quantize_base,optional"`
}

// NewLlama2_7B is the factory behind "models.llama2_7b".
func NewLlama2_7B(ctx context.Context, input *Input) (*Card, error) {
	card := llama2_7b()
	ctxlog.FromContext(ctx).Debug("Model card ready.", "model", card.Name, "params", card.NumParams())
	return card, nil
}

// NewLoRALlama2_7B is the factory behind "models.lora_llama2_7b".
func NewLoRALlama2_7B(ctx context.Context, input *LoRAInput) (*Card, error) {
	lora := &LoRAConfig{
		AttnModules:   input.AttnModules,
		ApplyToMLP:    input.ApplyToMLP,
		ApplyToOutput: input.ApplyToOutput,
		Rank:          input.Rank,
		Alpha:         input.Alpha,
		Dropout:       input.Dropout,
		QuantizeBase:  input.QuantizeBase,
	}
	if lora.Rank == 0 {
		lora.Rank = 8
	}
	if lora.Alpha == 0 {
		lora.Alpha = 16
	}
	if err := validateLoRA(lora); err != nil {
		return nil, err
	}

	card := llama2_7b()
	card.Name = "lora_llama2_7b"
	card.LoRA = lora
	ctxlog.FromContext(ctx).Debug("Model card ready.",
		"model", card.Name,
		"params", card.NumParams(),
		"adapter_params", card.NumAdapterParams())
	return card, nil
}

// Register registers the model card factories with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("models.llama2_7b", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewLlama2_7B,
	})
	r.Register("models.lora_llama2_7b", &registry.Factory{
		NewInput: func() any { return new(LoRAInput) },
		Fn:       NewLoRALlama2_7B,
	})
}
