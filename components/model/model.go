// Package model provides the model card components describing the
// transformer architectures a run targets, including their LoRA variants.
package model

import "fmt"

// Card describes a decoder-only transformer architecture. Recipes use it
// to size state dicts and to validate checkpoints against the expected
// shape.
type Card struct {
	Name        string
	VocabSize   int
	NumLayers   int
	NumHeads    int
	NumKVHeads  int
	EmbedDim    int
	IntermedDim int
	MaxSeqLen   int
	NormEps     float64
	AttnDropout float64
	LoRA        *LoRAConfig
}

// LoRAConfig captures the low-rank adaptation settings applied on top of a
// base Card.
type LoRAConfig struct {
	AttnModules   []string
	ApplyToMLP    bool
	ApplyToOutput bool
	Rank          int
	Alpha         float64
	Dropout       float64
	QuantizeBase  bool
}

// HeadDim returns the per-head attention dimension.
func (c *Card) HeadDim() int { return c.EmbedDim / c.NumHeads }

// IsLoRA reports whether the card carries adapter settings.
func (c *Card) IsLoRA() bool { return c.LoRA != nil }

// NumParams returns the dense parameter count of the architecture,
// excluding any adapter weights.
func (c *Card) NumParams() int64 {
	embed := int64(c.VocabSize) * int64(c.EmbedDim)
	headDim := int64(c.HeadDim())
	perLayer := int64(c.EmbedDim)*headDim*int64(c.NumHeads) + // q_proj
		2*int64(c.EmbedDim)*headDim*int64(c.NumKVHeads) + // k_proj, v_proj
		int64(c.NumHeads)*headDim*int64(c.EmbedDim) + // output_proj
		3*int64(c.EmbedDim)*int64(c.IntermedDim) + // gate, down, up
		2*int64(c.EmbedDim) // attn and mlp norms
	return embed + int64(c.NumLayers)*perLayer + int64(c.EmbedDim) + embed // final norm + output
}

// NumAdapterParams returns the trainable adapter parameter count, zero for
// dense cards.
func (c *Card) NumAdapterParams() int64 {
	if c.LoRA == nil {
		return 0
	}
	rank := int64(c.LoRA.Rank)
	headDim := int64(c.HeadDim())
	var total int64
	for _, m := range c.LoRA.AttnModules {
		var outDim int64
		switch m {
		case "q_proj", "output_proj":
			outDim = int64(c.NumHeads) * headDim
		case "k_proj", "v_proj":
			outDim = int64(c.NumKVHeads) * headDim
		}
		total += rank * (int64(c.EmbedDim) + outDim)
	}
	total *= int64(c.NumLayers)
	if c.LoRA.ApplyToMLP {
		total += int64(c.NumLayers) * 3 * rank * (int64(c.EmbedDim) + int64(c.IntermedDim))
	}
	if c.LoRA.ApplyToOutput {
		total += rank * (int64(c.EmbedDim) + int64(c.VocabSize))
	}
	return total
}

// validAttnModules lists the attention projections LoRA can attach to.
var validAttnModules = map[string]bool{
	"q_proj":      true,
	"k_proj":      true,
	"v_proj":      true,
	"output_proj": true,
}

func validateLoRA(l *LoRAConfig) error {
	if len(l.AttnModules) == 0 {
		return fmt.Errorf("lora_attn_modules cannot be empty")
	}
	seen := map[string]bool{}
	for _, m := range l.AttnModules {
		if !validAttnModules[m] {
			return fmt.Errorf("invalid lora_attn_modules entry %q", m)
		}
		if seen[m] {
			return fmt.Errorf("duplicate lora_attn_modules entry %q", m)
		}
		seen[m] = true
	}
	if l.Rank <= 0 {
		return fmt.Errorf("lora_rank must be positive, got %d", l.Rank)
	}
	if l.Alpha <= 0 {
		return fmt.Errorf("lora_alpha must be positive, got %v", l.Alpha)
	}
	if l.Dropout < 0 || l.Dropout >= 1 {
		return fmt.Errorf("lora_dropout must be in [0, 1), got %v", l.Dropout)
	}
	return nil
}

// llama2_7b returns the base 7B architecture card.
func llama2_7b() *Card {
	return &Card{
		Name:        "llama2_7b",
		VocabSize:   32_000,
		NumLayers:   32,
		NumHeads:    32,
		NumKVHeads:  32,
		EmbedDim:    4096,
		IntermedDim: 11008,
		MaxSeqLen:   4096,
		NormEps:     1e-5,
		AttnDropout: 0.0,
	}
}
