package recipe

import (
	"context"
	"time"

	"github.com/mirceamironenco/tunekit/components/checkpointer"
	"github.com/mirceamironenco/tunekit/components/quantizer"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/materialize"
)

// Quantize is the post-training quantization flow: load a checkpoint,
// rewrite its tensors to the quantized layout, and save the result.
type Quantize struct {
	result *materialize.Result
	ckpt   *checkpointer.Checkpointer
	quant  *quantizer.Quantizer
}

// Setup implements Recipe.
func (r *Quantize) Setup(ctx context.Context, result *materialize.Result) error {
	r.result = result
	if err := runDownload(ctx, result); err != nil {
		return err
	}

	var err error
	if r.ckpt, err = materialize.Field[*checkpointer.Checkpointer](result, "checkpointer"); err != nil {
		return err
	}
	if r.quant, err = materialize.Field[*quantizer.Quantizer](result, "quantizer"); err != nil {
		return err
	}
	return nil
}

// Run implements Recipe.
func (r *Quantize) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	manifest, err := r.ckpt.Load(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	quantized, err := r.quant.Quantize(ctx, manifest)
	if err != nil {
		return err
	}
	logger.Info("▶️ Model quantized.",
		"quantizer", r.quant.Name,
		"groupsize", r.quant.GroupSize,
		"duration", time.Since(start))

	path, err := r.ckpt.Save(ctx, quantized, 0)
	if err != nil {
		return err
	}
	logger.Info("✅ Quantized checkpoint written.", "path", path)
	return nil
}

// Cleanup implements Recipe.
func (r *Quantize) Cleanup(ctx context.Context) error {
	if r.result == nil {
		return nil
	}
	return r.result.Close()
}
