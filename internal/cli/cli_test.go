package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PositionalsAndFlags(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{
		"--recipe", "finetune_lora",
		"--log-level", "debug",
		"config.yaml",
		"model.lora_rank=32",
		"+model.lora_dropout=0.1",
		"~settings.seed",
	}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, []string{"config.yaml"}, cfg.ConfigPaths)
	assert.Equal(t, []string{"model.lora_rank=32", "+model.lora_dropout=0.1", "~settings.seed"}, cfg.Overrides)
	assert.Equal(t, "finetune_lora", cfg.Recipe)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.ValidateOnly)
}

func TestParse_RepeatableConfigFlag(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"--config", "base.yaml", "-c", "site.yaml"}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, []string{"base.yaml", "site.yaml"}, cfg.ConfigPaths)
}

func TestParse_Defaults(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"config.yaml"}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Recipe)
}

func TestParse_NoConfigPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse(nil, out)
	require.NoError(t, err)

	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Help(t *testing.T) {
	out := &bytes.Buffer{}
	_, exit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, exit)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--bogus"}},
		{name: "bad log level", args: []string{"--log-level", "loud", "config.yaml"}},
		{name: "bad log format", args: []string{"--log-format", "xml", "config.yaml"}},
		{name: "path after overrides", args: []string{"a=1", "config.yaml"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			_, _, err := Parse(tc.args, out)
			require.Error(t, err)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
