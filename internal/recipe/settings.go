package recipe

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/mirceamironenco/tunekit/internal/materialize"
)

// TrainSettings are the plain top-level knobs of a training run, read from
// the materialized config and backfilled with defaults.
type TrainSettings struct {
	Epochs           int
	MaxStepsPerEpoch int
	BatchSize        int
	GradientAccSteps int
	Seed             int64
	LogEveryNSteps   int
}

func defaultTrainSettings() TrainSettings {
	return TrainSettings{
		Epochs:           1,
		MaxStepsPerEpoch: 0, // unlimited
		BatchSize:        2,
		GradientAccSteps: 1,
		Seed:             0,
		LogEveryNSteps:   10,
	}
}

// loadTrainSettings reads the recognized scalar fields out of the result
// and merges the defaults into whatever the config left unset.
func loadTrainSettings(result *materialize.Result) (TrainSettings, error) {
	var s TrainSettings
	var err error
	if s.Epochs, err = intField(result, "epochs"); err != nil {
		return s, err
	}
	if s.MaxStepsPerEpoch, err = intField(result, "max_steps_per_epoch"); err != nil {
		return s, err
	}
	if s.BatchSize, err = intField(result, "batch_size"); err != nil {
		return s, err
	}
	if s.GradientAccSteps, err = intField(result, "gradient_accumulation_steps"); err != nil {
		return s, err
	}
	if s.LogEveryNSteps, err = intField(result, "log_every_n_steps"); err != nil {
		return s, err
	}
	seed, _, err := materialize.OptionalField[int64](result, "seed")
	if err != nil {
		return s, err
	}
	s.Seed = seed

	if err := mergo.Merge(&s, defaultTrainSettings()); err != nil {
		return s, fmt.Errorf("applying settings defaults: %w", err)
	}
	if s.Epochs <= 0 {
		return s, fmt.Errorf("epochs must be positive, got %d", s.Epochs)
	}
	if s.BatchSize <= 0 {
		return s, fmt.Errorf("batch_size must be positive, got %d", s.BatchSize)
	}
	if s.GradientAccSteps <= 0 {
		return s, fmt.Errorf("gradient_accumulation_steps must be positive, got %d", s.GradientAccSteps)
	}
	return s, nil
}

func intField(result *materialize.Result, name string) (int, error) {
	v, ok, err := materialize.OptionalField[int64](result, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return int(v), nil
}
