package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLlama2_7B(t *testing.T) {
	card, err := NewLlama2_7B(context.Background(), &Input{})
	require.NoError(t, err)

	assert.Equal(t, "llama2_7b", card.Name)
	assert.Equal(t, 32_000, card.VocabSize)
	assert.Equal(t, 32, card.NumLayers)
	assert.Equal(t, 4096, card.EmbedDim)
	assert.Equal(t, 128, card.HeadDim())
	assert.False(t, card.IsLoRA())
	assert.Zero(t, card.NumAdapterParams())

	// The dense parameter count lands in the neighborhood the "7b" name
	// promises.
	params := card.NumParams()
	assert.Greater(t, params, int64(6_000_000_000))
	assert.Less(t, params, int64(8_000_000_000))
}

func TestNewLoRALlama2_7B_Defaults(t *testing.T) {
	card, err := NewLoRALlama2_7B(context.Background(), &LoRAInput{
		AttnModules: []string{"q_proj", "v_proj"},
	})
	require.NoError(t, err)

	require.True(t, card.IsLoRA())
	assert.Equal(t, "lora_llama2_7b", card.Name)
	assert.Equal(t, 8, card.LoRA.Rank)
	assert.Equal(t, 16.0, card.LoRA.Alpha)
	assert.Zero(t, card.LoRA.Dropout)

	// rank * (in + out) per projection, per layer.
	expected := int64(32) * 2 * 8 * (4096 + 4096)
	assert.Equal(t, expected, card.NumAdapterParams())
}

func TestNewLoRALlama2_7B_AdapterGrowth(t *testing.T) {
	base, err := NewLoRALlama2_7B(context.Background(), &LoRAInput{
		AttnModules: []string{"q_proj"},
	})
	require.NoError(t, err)

	wider, err := NewLoRALlama2_7B(context.Background(), &LoRAInput{
		AttnModules:   []string{"q_proj", "k_proj", "v_proj", "output_proj"},
		ApplyToMLP:    true,
		ApplyToOutput: true,
	})
	require.NoError(t, err)

	assert.Greater(t, wider.NumAdapterParams(), base.NumAdapterParams())
	assert.Equal(t, base.NumParams(), wider.NumParams(), "adapters never change the dense count")
}

func TestNewLoRALlama2_7B_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		input *LoRAInput
	}{
		{name: "no modules", input: &LoRAInput{}},
		{name: "unknown module", input: &LoRAInput{AttnModules: []string{"gate_proj"}}},
		{name: "duplicate module", input: &LoRAInput{AttnModules: []string{"q_proj", "q_proj"}}},
		{name: "negative rank", input: &LoRAInput{AttnModules: []string{"q_proj"}, Rank: -1}},
		{name: "negative alpha", input: &LoRAInput{AttnModules: []string{"q_proj"}, Alpha: -2}},
		{name: "dropout out of range", input: &LoRAInput{AttnModules: []string{"q_proj"}, Dropout: 1.5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoRALlama2_7B(context.Background(), tc.input)
			assert.Error(t, err)
		})
	}
}
