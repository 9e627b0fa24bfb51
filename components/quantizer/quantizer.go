// Package quantizer provides the post-training quantization components:
// int8 dynamic activations with int4 grouped weights, plus its
// quantization-aware-training variant used to convert QAT checkpoints.
package quantizer

import (
	"context"
	"fmt"

	"github.com/mirceamironenco/tunekit/components/checkpointer"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// validGroupSizes lists the weight group sizes the int4 kernels support.
var validGroupSizes = map[int]bool{32: true, 64: true, 128: true, 256: true}

// Quantizer rewrites a checkpoint manifest to its quantized dtype layout.
type Quantizer struct {
	Name      string
	GroupSize int
	// QAT quantizers expect checkpoints trained with fake-quant observers
	// and strip them during conversion.
	QAT bool
}

// DTypeSuffix returns the suffix appended to the saved manifest's
// model_type, e.g. "llama2-8da4w".
func (q *Quantizer) DTypeSuffix() string { return "8da4w" }

// Quantize rewrites every floating-point tensor entry in the manifest to
// the quantized dtype. The returned manifest is a copy.
func (q *Quantizer) Quantize(ctx context.Context, m *checkpointer.Manifest) (*checkpointer.Manifest, error) {
	out := &checkpointer.Manifest{
		ModelType: m.ModelType + "-" + q.DTypeSuffix(),
		Tensors:   make(map[string]checkpointer.TensorMeta, len(m.Tensors)),
	}
	for name, meta := range m.Tensors {
		quantized := meta
		switch meta.DType {
		case "fp32", "fp16", "bf16":
			if len(meta.Shape) >= 1 && meta.Shape[len(meta.Shape)-1]%q.GroupSize != 0 {
				return nil, fmt.Errorf("tensor %s: last dimension %d is not divisible by groupsize %d",
					name, meta.Shape[len(meta.Shape)-1], q.GroupSize)
			}
			quantized.DType = "int4"
		case "":
			return nil, fmt.Errorf("tensor %s has no dtype", name)
		}
		out.Tensors[name] = quantized
	}
	ctxlog.FromContext(ctx).Debug("Manifest quantized.",
		"quantizer", q.Name, "groupsize", q.GroupSize, "tensors", len(out.Tensors))
	return out, nil
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments shared by the quantizer factories.
type Input struct {
	GroupSize int `cfg:"groupsize,optional"`
}

func build(name string, qat bool, input *Input) (*Quantizer, error) {
	groupSize := input.GroupSize
	if groupSize == 0 {
		groupSize = 256
	}
	if !validGroupSizes[groupSize] {
		return nil, fmt.Errorf("invalid groupsize %d, must be one of 32, 64, 128, 256", groupSize)
	}
	return &Quantizer{Name: name, GroupSize: groupSize, QAT: qat}, nil
}

// NewInt8DynActInt4Weight is the factory behind
// "quantizers.int8dynact_int4weight".
func NewInt8DynActInt4Weight(ctx context.Context, input *Input) (*Quantizer, error) {
	return build("int8dynact_int4weight", false, input)
}

// NewInt8DynActInt4WeightQAT is the factory behind
// "quantizers.int8dynact_int4weight_qat".
func NewInt8DynActInt4WeightQAT(ctx context.Context, input *Input) (*Quantizer, error) {
	return build("int8dynact_int4weight_qat", true, input)
}

// Register registers the quantizer factories with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("quantizers.int8dynact_int4weight", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewInt8DynActInt4Weight,
	})
	r.Register("quantizers.int8dynact_int4weight_qat", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewInt8DynActInt4WeightQAT,
	})
}
