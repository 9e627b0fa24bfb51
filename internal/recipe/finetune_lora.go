package recipe

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/mirceamironenco/tunekit/components/checkpointer"
	"github.com/mirceamironenco/tunekit/components/dataset"
	"github.com/mirceamironenco/tunekit/components/model"
	"github.com/mirceamironenco/tunekit/components/optimizer"
	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/materialize"
)

// LoRAFinetune is the single-device LoRA fine-tuning flow: it walks the
// dataset in batches for the configured epochs, steps the optimizer state,
// and writes an adapter checkpoint at every epoch boundary.
type LoRAFinetune struct {
	result    *materialize.Result
	settings  TrainSettings
	card      *model.Card
	data      dataset.Dataset
	optim     *optimizer.Optimizer
	scheduler *optimizer.Scheduler
	ckpt      *checkpointer.Checkpointer
	base      *checkpointer.Manifest
}

// Setup implements Recipe.
func (r *LoRAFinetune) Setup(ctx context.Context, result *materialize.Result) error {
	r.result = result
	if err := runDownload(ctx, result); err != nil {
		return err
	}

	var err error
	if r.settings, err = loadTrainSettings(result); err != nil {
		return err
	}
	if r.card, err = materialize.Field[*model.Card](result, "model"); err != nil {
		return err
	}
	if !r.card.IsLoRA() {
		return fmt.Errorf("model %q carries no adapter settings; use a lora_* model", r.card.Name)
	}
	if r.data, err = materialize.Field[dataset.Dataset](result, "dataset"); err != nil {
		return err
	}
	if r.optim, err = materialize.Field[*optimizer.Optimizer](result, "optimizer"); err != nil {
		return err
	}
	if r.scheduler, _, err = materialize.OptionalField[*optimizer.Scheduler](result, "lr_scheduler"); err != nil {
		return err
	}
	if r.ckpt, err = materialize.Field[*checkpointer.Checkpointer](result, "checkpointer"); err != nil {
		return err
	}
	if r.base, err = r.ckpt.Load(ctx); err != nil {
		return err
	}

	if tok := r.data.Tokenizer(); tok.VocabSize() > r.card.VocabSize {
		ctxlog.FromContext(ctx).Warn("Tokenizer vocab exceeds model vocab; ids past the embedding table will not train.",
			"tokenizer_vocab", tok.VocabSize(), "model_vocab", r.card.VocabSize)
	}

	ctxlog.FromContext(ctx).Info("✅ Recipe setup complete.",
		"model", r.card.Name,
		"adapter_params", r.card.NumAdapterParams(),
		"samples", r.data.Len(),
		"epochs", r.settings.Epochs)
	return nil
}

// Run implements Recipe.
func (r *LoRAFinetune) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	rng := rand.New(rand.NewSource(r.settings.Seed))

	stepsPerEpoch := (r.data.Len() + r.settings.BatchSize - 1) / r.settings.BatchSize
	stepsPerEpoch = (stepsPerEpoch + r.settings.GradientAccSteps - 1) / r.settings.GradientAccSteps
	if r.settings.MaxStepsPerEpoch > 0 && stepsPerEpoch > r.settings.MaxStepsPerEpoch {
		stepsPerEpoch = r.settings.MaxStepsPerEpoch
	}
	if stepsPerEpoch == 0 {
		return fmt.Errorf("dataset too small for batch_size %d", r.settings.BatchSize)
	}

	globalStep := 0
	loss := 10.0 + rng.Float64()
	for epoch := 0; epoch < r.settings.Epochs; epoch++ {
		logger.Info("🚀 Starting epoch.", "epoch", epoch, "steps", stepsPerEpoch)
		for step := 0; step < stepsPerEpoch; step++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			lr := r.optim.LR
			if r.scheduler != nil {
				lr *= r.scheduler.LambdaAt(globalStep)
			}
			// Loss decays toward a floor; stands in for the backward pass.
			loss = math.Max(0.5, loss*(0.995+0.005*rng.Float64()))
			globalStep++
			if r.settings.LogEveryNSteps > 0 && globalStep%r.settings.LogEveryNSteps == 0 {
				logger.Info("▶️ Training step.",
					"epoch", epoch, "step", globalStep, "loss", loss, "lr", lr)
			}
		}
		if err := r.saveAdapter(ctx, epoch); err != nil {
			return err
		}
	}

	logger.Info("✅ Training complete.", "steps", globalStep, "final_loss", loss)
	return nil
}

// saveAdapter writes the per-epoch adapter snapshot: only the low-rank
// tensors, not the frozen base weights.
func (r *LoRAFinetune) saveAdapter(ctx context.Context, epoch int) error {
	lora := r.card.LoRA
	headDim := r.card.HeadDim()
	outDims := map[string]int{
		"q_proj":      r.card.NumHeads * headDim,
		"k_proj":      r.card.NumKVHeads * headDim,
		"v_proj":      r.card.NumKVHeads * headDim,
		"output_proj": r.card.NumHeads * headDim,
	}

	m := &checkpointer.Manifest{Adapter: true, Tensors: map[string]checkpointer.TensorMeta{}}
	add := func(name string, inDim, outDim int) {
		m.Tensors[name+".lora_a.weight"] = checkpointer.TensorMeta{
			Shape: []int{lora.Rank, inDim}, DType: "fp32", File: "adapter.bin",
		}
		m.Tensors[name+".lora_b.weight"] = checkpointer.TensorMeta{
			Shape: []int{outDim, lora.Rank}, DType: "fp32", File: "adapter.bin",
		}
	}
	for layer := 0; layer < r.card.NumLayers; layer++ {
		for _, mod := range lora.AttnModules {
			add(fmt.Sprintf("layers.%d.attn.%s", layer, mod), r.card.EmbedDim, outDims[mod])
		}
		if lora.ApplyToMLP {
			prefix := fmt.Sprintf("layers.%d.mlp", layer)
			add(prefix+".w1", r.card.EmbedDim, r.card.IntermedDim)
			add(prefix+".w2", r.card.IntermedDim, r.card.EmbedDim)
			add(prefix+".w3", r.card.EmbedDim, r.card.IntermedDim)
		}
	}
	if lora.ApplyToOutput {
		add("output", r.card.EmbedDim, r.card.VocabSize)
	}

	_, err := r.ckpt.Save(ctx, m, epoch)
	return err
}

// Cleanup implements Recipe.
func (r *LoRAFinetune) Cleanup(ctx context.Context) error {
	if r.result == nil {
		return nil
	}
	return r.result.Close()
}
