package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ValidateOnly(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
base_dir: /tmp/run
output_dir: ${base_dir}/out
optimizer:
  _component_: optimizers.adamw
  lr: 3e-4
`)

	out := &bytes.Buffer{}
	err := run(out, []string{"--validate-only", "--log-level", "error", path})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "output_dir: \"/tmp/run/out\"", "placeholders resolve before printing")
	assert.Contains(t, out.String(), "_component_: optimizers.adamw")
}

func TestRun_ValidateOnlyWithOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
optimizer:
  _component_: optimizers.adamw
  lr: 3e-4
`)

	out := &bytes.Buffer{}
	err := run(out, []string{"--validate-only", "--log-level", "error", path, "optimizer.lr=0.001"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "lr: 0.001")
}

func TestRun_ConfigErrorsPropagate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		extra   []string
		wantErr string
	}{
		{
			name:    "syntax error",
			content: "a: [1, 2\n",
			wantErr: "parse error",
		},
		{
			name:    "unknown reference",
			content: "a: ${missing}\n",
			wantErr: "unknown field",
		},
		{
			name:    "closed component args",
			content: "o:\n  _component_: optimizers.adamw\n  lr: 1e-3\n",
			extra:   []string{"o.typo=1"},
			wantErr: "do not accept new keys",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			out := &bytes.Buffer{}
			args := append([]string{"--validate-only", "--log-level", "error", path}, tc.extra...)

			err := run(out, args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRun_MissingConfigPath(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, nil)

	require.NoError(t, err, "no config path prints usage and exits cleanly")
	assert.Contains(t, out.String(), "Usage:")
}
