package optimizer

import (
	"context"
	"fmt"

	"github.com/mirceamironenco/tunekit/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// AdamWInput defines the arguments for "optimizers.adamw".
type AdamWInput struct {
	LR          float64   `cfg:"lr"`
	Betas       []float64 `cfg:"betas,optional"`
	Eps         float64   `cfg:"eps,optional"`
	WeightDecay float64   `cfg:"weight_decay,optional"`
}

// SGDInput defines the arguments for "optimizers.sgd".
type SGDInput struct {
	LR          float64 `cfg:"lr"`
	Momentum    float64 `cfg:"momentum,optional"`
	WeightDecay float64 `cfg:"weight_decay,optional"`
}

// SchedulerInput defines the arguments for "lr_schedulers.cosine_with_warmup".
type SchedulerInput struct {
	WarmupSteps int     `cfg:"num_warmup_steps"`
	TotalSteps  int     `cfg:"num_training_steps"`
	NumCycles   float64 `cfg:"num_cycles,optional"`
}

// NewAdamW is the factory behind "optimizers.adamw".
func NewAdamW(ctx context.Context, input *AdamWInput) (*Optimizer, error) {
	o := &Optimizer{
		Name:        "adamw",
		LR:          input.LR,
		Betas:       input.Betas,
		Eps:         input.Eps,
		WeightDecay: input.WeightDecay,
	}
	if o.Betas == nil {
		o.Betas = []float64{0.9, 0.999}
	}
	if o.Eps == 0 {
		o.Eps = 1e-8
	}
	if err := validateAdamW(o); err != nil {
		return nil, err
	}
	return o, nil
}

// NewSGD is the factory behind "optimizers.sgd".
func NewSGD(ctx context.Context, input *SGDInput) (*Optimizer, error) {
	o := &Optimizer{
		Name:        "sgd",
		LR:          input.LR,
		Momentum:    input.Momentum,
		WeightDecay: input.WeightDecay,
	}
	if err := validateSGD(o); err != nil {
		return nil, err
	}
	return o, nil
}

// NewCosineWithWarmup is the factory behind "lr_schedulers.cosine_with_warmup".
func NewCosineWithWarmup(ctx context.Context, input *SchedulerInput) (*Scheduler, error) {
	if input.WarmupSteps < 0 {
		return nil, fmt.Errorf("num_warmup_steps cannot be negative, got %d", input.WarmupSteps)
	}
	if input.TotalSteps <= input.WarmupSteps {
		return nil, fmt.Errorf("num_training_steps (%d) must exceed num_warmup_steps (%d)",
			input.TotalSteps, input.WarmupSteps)
	}
	s := &Scheduler{
		Name:        "cosine_with_warmup",
		WarmupSteps: input.WarmupSteps,
		TotalSteps:  input.TotalSteps,
		NumCycles:   input.NumCycles,
	}
	if s.NumCycles == 0 {
		s.NumCycles = 0.5
	}
	return s, nil
}

// Register registers the optimizer and scheduler factories with the
// registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("optimizers.adamw", &registry.Factory{
		NewInput: func() any { return new(AdamWInput) },
		Fn:       NewAdamW,
	})
	r.Register("optimizers.sgd", &registry.Factory{
		NewInput: func() any { return new(SGDInput) },
		Fn:       NewSGD,
	})
	r.Register("lr_schedulers.cosine_with_warmup", &registry.Factory{
		NewInput: func() any { return new(SchedulerInput) },
		Fn:       NewCosineWithWarmup,
	})
}
