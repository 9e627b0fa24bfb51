package checkpointer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCheckpoint(t *testing.T, m *Manifest, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestName), raw, 0o644))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("weights"), 0o644))
	}
	return dir
}

func testManifest() *Manifest {
	return &Manifest{
		ModelType: "llama2",
		Tensors: map[string]TensorMeta{
			"tok_embeddings.weight": {Shape: []int{32000, 4096}, DType: "bf16", File: "model.bin"},
			"output.weight":         {Shape: []int{32000, 4096}, DType: "bf16", File: "model.bin"},
		},
	}
}

func TestNewFullModel_Validation(t *testing.T) {
	dir := writeCheckpoint(t, testManifest(), "model.bin")
	out := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		c, err := NewFullModel(context.Background(), &Input{
			CheckpointDir:   dir,
			CheckpointFiles: []string{"model.bin"},
			OutputDir:       out,
			ModelType:       "llama2",
		})
		require.NoError(t, err)
		assert.Equal(t, out, c.OutputDir())
	})

	t.Run("missing checkpoint dir", func(t *testing.T) {
		_, err := NewFullModel(context.Background(), &Input{
			CheckpointDir: filepath.Join(dir, "nope"),
			OutputDir:     out,
		})
		assert.Error(t, err)
	})

	t.Run("missing checkpoint file", func(t *testing.T) {
		_, err := NewFullModel(context.Background(), &Input{
			CheckpointDir:   dir,
			CheckpointFiles: []string{"absent.bin"},
			OutputDir:       out,
		})
		assert.Error(t, err)
	})

	t.Run("empty required fields", func(t *testing.T) {
		_, err := NewFullModel(context.Background(), &Input{OutputDir: out})
		assert.Error(t, err)
		_, err = NewFullModel(context.Background(), &Input{CheckpointDir: dir})
		assert.Error(t, err)
	})
}

func TestNewMeta(t *testing.T) {
	out := t.TempDir()

	t.Run("defaults to consolidated file", func(t *testing.T) {
		dir := writeCheckpoint(t, testManifest(), metaCheckpointFile)
		c, err := NewMeta(context.Background(), &Input{
			CheckpointDir: dir,
			OutputDir:     out,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{metaCheckpointFile}, c.checkpointFiles)
	})

	t.Run("default file absent", func(t *testing.T) {
		dir := writeCheckpoint(t, testManifest())
		_, err := NewMeta(context.Background(), &Input{
			CheckpointDir: dir,
			OutputDir:     out,
		})
		assert.Error(t, err)
	})

	t.Run("rejects multiple files", func(t *testing.T) {
		dir := writeCheckpoint(t, testManifest(), "a.pth", "b.pth")
		_, err := NewMeta(context.Background(), &Input{
			CheckpointDir:   dir,
			CheckpointFiles: []string{"a.pth", "b.pth"},
			OutputDir:       out,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "single consolidated file")
	})
}

func TestLoad(t *testing.T) {
	dir := writeCheckpoint(t, testManifest())
	c, err := New(dir, nil, t.TempDir(), "llama2")
	require.NoError(t, err)

	m, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "llama2", m.ModelType)
	assert.Len(t, m.Tensors, 2)
}

func TestLoad_ModelTypeMismatch(t *testing.T) {
	dir := writeCheckpoint(t, testManifest())
	c, err := New(dir, nil, t.TempDir(), "llama3")
	require.NoError(t, err)

	_, err = c.Load(context.Background())
	assert.Error(t, err)
}

func TestLoad_MissingManifest(t *testing.T) {
	c, err := New(t.TempDir(), nil, t.TempDir(), "")
	require.NoError(t, err)

	_, err = c.Load(context.Background())
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	dir := writeCheckpoint(t, testManifest())
	out := t.TempDir()
	c, err := New(dir, nil, out, "llama2")
	require.NoError(t, err)

	m, err := c.Load(context.Background())
	require.NoError(t, err)

	path, err := c.Save(context.Background(), m, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "epoch_2", manifestName), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved Manifest
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, 2, saved.Epoch)
	assert.Equal(t, "llama2", saved.ModelType)
	assert.Len(t, saved.Tensors, 2)

	// No stray partial file survives the atomic rename.
	_, err = os.Stat(path + ".partial")
	assert.True(t, os.IsNotExist(err))
}

func TestSave_AdapterSnapshotName(t *testing.T) {
	dir := writeCheckpoint(t, testManifest())
	out := t.TempDir()
	c, err := New(dir, nil, out, "llama2")
	require.NoError(t, err)

	m := &Manifest{Adapter: true, Tensors: map[string]TensorMeta{}}
	path, err := c.Save(context.Background(), m, 0)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "adapter_0", manifestName), path)
}
