// Package checkpointer provides the checkpoint components. Checkpoints are
// directories holding weight shards plus a manifest describing every
// tensor, which is what the recipes read and write.
package checkpointer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mirceamironenco/tunekit/internal/ctxlog"
)

// manifestName is the fixed manifest file name inside a checkpoint
// directory.
const manifestName = "manifest.json"

// TensorMeta describes one tensor in a checkpoint manifest.
type TensorMeta struct {
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
	File  string `json:"file"`
}

// Manifest is the on-disk index of a checkpoint directory.
type Manifest struct {
	ModelType string                `json:"model_type"`
	Epoch     int                   `json:"epoch,omitempty"`
	Adapter   bool                  `json:"adapter,omitempty"`
	Tensors   map[string]TensorMeta `json:"tensors"`
}

// Checkpointer loads the input checkpoint and writes epoch snapshots to
// the output directory.
type Checkpointer struct {
	checkpointDir   string
	checkpointFiles []string
	outputDir       string
	modelType       string
}

// New validates the checkpoint layout up front so a bad path fails at
// materialization rather than at the end of an epoch.
func New(checkpointDir string, checkpointFiles []string, outputDir, modelType string) (*Checkpointer, error) {
	info, err := os.Stat(checkpointDir)
	if err != nil {
		return nil, fmt.Errorf("checkpoint_dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("checkpoint_dir %s is not a directory", checkpointDir)
	}
	for _, f := range checkpointFiles {
		if _, err := os.Stat(filepath.Join(checkpointDir, f)); err != nil {
			return nil, fmt.Errorf("checkpoint file: %w", err)
		}
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output_dir: %w", err)
	}
	return &Checkpointer{
		checkpointDir:   checkpointDir,
		checkpointFiles: checkpointFiles,
		outputDir:       outputDir,
		modelType:       modelType,
	}, nil
}

// OutputDir returns the directory snapshots are written to.
func (c *Checkpointer) OutputDir() string { return c.outputDir }

// Load reads the input checkpoint manifest.
func (c *Checkpointer) Load(ctx context.Context) (*Manifest, error) {
	path := filepath.Join(c.checkpointDir, manifestName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing checkpoint manifest %s: %w", path, err)
	}
	if c.modelType != "" && m.ModelType != "" && m.ModelType != c.modelType {
		return nil, fmt.Errorf("checkpoint model_type %q does not match configured %q", m.ModelType, c.modelType)
	}
	ctxlog.FromContext(ctx).Info("✅ Checkpoint loaded.", "dir", c.checkpointDir, "tensors", len(m.Tensors))
	return &m, nil
}

// Save writes an epoch snapshot manifest into the output directory. The
// write is atomic so a crashed run never leaves a truncated manifest.
func (c *Checkpointer) Save(ctx context.Context, m *Manifest, epoch int) (string, error) {
	if m.ModelType == "" {
		m.ModelType = c.modelType
	}
	m.Epoch = epoch

	name := fmt.Sprintf("epoch_%d", epoch)
	if m.Adapter {
		name = fmt.Sprintf("adapter_%d", epoch)
	}
	dir := filepath.Join(c.outputDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding checkpoint manifest: %w", err)
	}
	path := filepath.Join(dir, manifestName)
	tmp := path + ".partial"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", fmt.Errorf("writing checkpoint manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalizing checkpoint manifest: %w", err)
	}
	ctxlog.FromContext(ctx).Info("✅ Checkpoint saved.", "path", path, "tensors", len(m.Tensors))
	return path, nil
}
