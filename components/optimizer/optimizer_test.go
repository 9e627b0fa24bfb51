package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdamW_Defaults(t *testing.T) {
	o, err := NewAdamW(context.Background(), &AdamWInput{LR: 3e-4})
	require.NoError(t, err)

	assert.Equal(t, "adamw", o.Name)
	assert.Equal(t, 3e-4, o.LR)
	assert.Equal(t, []float64{0.9, 0.999}, o.Betas)
	assert.Equal(t, 1e-8, o.Eps)
	assert.Zero(t, o.WeightDecay)
}

func TestNewAdamW_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		input *AdamWInput
	}{
		{name: "zero lr", input: &AdamWInput{}},
		{name: "negative lr", input: &AdamWInput{LR: -1}},
		{name: "one beta", input: &AdamWInput{LR: 1e-3, Betas: []float64{0.9}}},
		{name: "beta out of range", input: &AdamWInput{LR: 1e-3, Betas: []float64{0.9, 1.0}}},
		{name: "negative weight decay", input: &AdamWInput{LR: 1e-3, WeightDecay: -0.1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAdamW(context.Background(), tc.input)
			assert.Error(t, err)
		})
	}
}

func TestNewSGD(t *testing.T) {
	o, err := NewSGD(context.Background(), &SGDInput{LR: 0.1, Momentum: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "sgd", o.Name)
	assert.Equal(t, 0.9, o.Momentum)

	_, err = NewSGD(context.Background(), &SGDInput{LR: 0.1, Momentum: 1.0})
	assert.Error(t, err)
}

func TestNewCosineWithWarmup_Validation(t *testing.T) {
	_, err := NewCosineWithWarmup(context.Background(), &SchedulerInput{WarmupSteps: -1, TotalSteps: 10})
	assert.Error(t, err)

	_, err = NewCosineWithWarmup(context.Background(), &SchedulerInput{WarmupSteps: 10, TotalSteps: 10})
	assert.Error(t, err)
}

func TestScheduler_LambdaAt(t *testing.T) {
	s, err := NewCosineWithWarmup(context.Background(), &SchedulerInput{
		WarmupSteps: 10,
		TotalSteps:  110,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.NumCycles)

	assert.Zero(t, s.LambdaAt(0))
	assert.InDelta(t, 0.5, s.LambdaAt(5), 1e-9, "warmup is linear")
	assert.InDelta(t, 1.0, s.LambdaAt(10), 1e-9, "warmup ends at full rate")

	mid := s.LambdaAt(60)
	late := s.LambdaAt(100)
	assert.Greater(t, s.LambdaAt(20), mid)
	assert.Greater(t, mid, late)
	assert.GreaterOrEqual(t, late, 0.0)

	assert.InDelta(t, 0.0, s.LambdaAt(110), 1e-9, "decay reaches zero at the end")
}
