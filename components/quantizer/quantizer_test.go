package quantizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirceamironenco/tunekit/components/checkpointer"
)

func TestNewInt8DynActInt4Weight_GroupSizes(t *testing.T) {
	q, err := NewInt8DynActInt4Weight(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 256, q.GroupSize, "default groupsize")
	assert.False(t, q.QAT)

	for _, gs := range []int{32, 64, 128, 256} {
		q, err := NewInt8DynActInt4Weight(context.Background(), &Input{GroupSize: gs})
		require.NoError(t, err)
		assert.Equal(t, gs, q.GroupSize)
	}

	for _, gs := range []int{1, 16, 100, 512} {
		_, err := NewInt8DynActInt4Weight(context.Background(), &Input{GroupSize: gs})
		assert.Error(t, err, "groupsize %d", gs)
	}
}

func TestNewInt8DynActInt4WeightQAT(t *testing.T) {
	q, err := NewInt8DynActInt4WeightQAT(context.Background(), &Input{GroupSize: 64})
	require.NoError(t, err)
	assert.True(t, q.QAT)
}

func TestQuantize_RewritesDTypes(t *testing.T) {
	q, err := NewInt8DynActInt4Weight(context.Background(), &Input{GroupSize: 128})
	require.NoError(t, err)

	in := &checkpointer.Manifest{
		ModelType: "llama2",
		Tensors: map[string]checkpointer.TensorMeta{
			"attn.q_proj.weight": {Shape: []int{4096, 4096}, DType: "bf16", File: "model.bin"},
			"rope.freqs":         {Shape: []int{64}, DType: "int64", File: "model.bin"},
		},
	}

	out, err := q.Quantize(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "llama2-8da4w", out.ModelType)
	assert.Equal(t, "int4", out.Tensors["attn.q_proj.weight"].DType)
	assert.Equal(t, "int64", out.Tensors["rope.freqs"].DType, "non-float tensors pass through")

	// The input manifest is untouched.
	assert.Equal(t, "bf16", in.Tensors["attn.q_proj.weight"].DType)
}

func TestQuantize_GroupSizeDivisibility(t *testing.T) {
	q, err := NewInt8DynActInt4Weight(context.Background(), &Input{GroupSize: 256})
	require.NoError(t, err)

	in := &checkpointer.Manifest{
		Tensors: map[string]checkpointer.TensorMeta{
			"odd.weight": {Shape: []int{100, 100}, DType: "fp32", File: "model.bin"},
		},
	}
	_, err = q.Quantize(context.Background(), in)
	assert.Error(t, err)
}

func TestQuantize_MissingDType(t *testing.T) {
	q, err := NewInt8DynActInt4Weight(context.Background(), &Input{GroupSize: 32})
	require.NoError(t, err)

	in := &checkpointer.Manifest{
		Tensors: map[string]checkpointer.TensorMeta{
			"w": {Shape: []int{32}, File: "model.bin"},
		},
	}
	_, err = q.Quantize(context.Background(), in)
	assert.Error(t, err)
}
