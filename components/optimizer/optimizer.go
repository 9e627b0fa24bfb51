// Package optimizer provides the optimizer and learning-rate scheduler
// components. They carry the validated hyperparameters a run trains with;
// the scheduler additionally computes the per-step learning rate.
package optimizer

import (
	"fmt"
	"math"
)

// Optimizer holds the validated hyperparameters of one optimizer family.
type Optimizer struct {
	Name        string
	LR          float64
	WeightDecay float64
	Betas       []float64 // adamw only
	Eps         float64   // adamw only
	Momentum    float64   // sgd only
}

func validateAdamW(o *Optimizer) error {
	if o.LR <= 0 {
		return fmt.Errorf("lr must be positive, got %v", o.LR)
	}
	if len(o.Betas) != 2 {
		return fmt.Errorf("betas must have exactly two entries, got %d", len(o.Betas))
	}
	for i, b := range o.Betas {
		if b < 0 || b >= 1 {
			return fmt.Errorf("betas[%d] must be in [0, 1), got %v", i, b)
		}
	}
	if o.Eps <= 0 {
		return fmt.Errorf("eps must be positive, got %v", o.Eps)
	}
	if o.WeightDecay < 0 {
		return fmt.Errorf("weight_decay cannot be negative, got %v", o.WeightDecay)
	}
	return nil
}

func validateSGD(o *Optimizer) error {
	if o.LR <= 0 {
		return fmt.Errorf("lr must be positive, got %v", o.LR)
	}
	if o.Momentum < 0 || o.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0, 1), got %v", o.Momentum)
	}
	if o.WeightDecay < 0 {
		return fmt.Errorf("weight_decay cannot be negative, got %v", o.WeightDecay)
	}
	return nil
}

// Scheduler computes the learning-rate multiplier for a training step.
type Scheduler struct {
	Name        string
	WarmupSteps int
	TotalSteps  int
	NumCycles   float64
}

// LambdaAt returns the multiplier applied to the optimizer's base LR at
// the given zero-indexed step: linear warmup followed by cosine decay.
func (s *Scheduler) LambdaAt(step int) float64 {
	if step < s.WarmupSteps {
		return float64(step) / float64(max(1, s.WarmupSteps))
	}
	progress := float64(step-s.WarmupSteps) / float64(max(1, s.TotalSteps-s.WarmupSteps))
	return math.Max(0, 0.5*(1+math.Cos(math.Pi*s.NumCycles*2*progress)))
}
