package checkpointer

import (
	"context"
	"fmt"

	"github.com/mirceamironenco/tunekit/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for "checkpointers.full_model".
type Input struct {
	CheckpointDir   string   `cfg:"checkpoint_dir"`
	CheckpointFiles []string `cfg:"checkpoint_files,optional"`
	OutputDir       string   `cfg:"output_dir"`
	ModelType       string   `cfg:"model_type,optional"`
}

// NewFullModel is the factory behind "checkpointers.full_model".
func NewFullModel(ctx context.Context, input *Input) (*Checkpointer, error) {
	if input.CheckpointDir == "" {
		return nil, fmt.Errorf("checkpoint_dir cannot be empty")
	}
	if input.OutputDir == "" {
		return nil, fmt.Errorf("output_dir cannot be empty")
	}
	return New(input.CheckpointDir, input.CheckpointFiles, input.OutputDir, input.ModelType)
}

// metaCheckpointFile is the single consolidated weight file the meta
// format ships.
const metaCheckpointFile = "consolidated.00.pth"

// NewMeta is the factory behind "checkpointers.meta". The meta format
// carries its weights in one consolidated file, so checkpoint_files
// defaults to it and must name exactly one file when given.
func NewMeta(ctx context.Context, input *Input) (*Checkpointer, error) {
	if input.CheckpointDir == "" {
		return nil, fmt.Errorf("checkpoint_dir cannot be empty")
	}
	if input.OutputDir == "" {
		return nil, fmt.Errorf("output_dir cannot be empty")
	}
	files := input.CheckpointFiles
	if len(files) == 0 {
		files = []string{metaCheckpointFile}
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("meta checkpoints use a single consolidated file, got %d", len(files))
	}
	return New(input.CheckpointDir, files, input.OutputDir, input.ModelType)
}

// Register registers the checkpointer factories with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("checkpointers.full_model", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewFullModel,
	})
	r.Register("checkpointers.meta", &registry.Factory{
		NewInput: func() any { return new(Input) },
		Fn:       NewMeta,
	})
}
