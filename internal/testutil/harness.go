// Package testutil provides the shared harness integration tests run the
// resolution pipeline through.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mirceamironenco/tunekit/internal/app"
	"github.com/mirceamironenco/tunekit/internal/document"
	"github.com/mirceamironenco/tunekit/internal/interp"
	"github.com/mirceamironenco/tunekit/internal/loader"
	"github.com/mirceamironenco/tunekit/internal/loader/hclload"
	"github.com/mirceamironenco/tunekit/internal/loader/yamlload"
	"github.com/mirceamironenco/tunekit/internal/override"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes the given relative-path → content map under a fresh
// temp directory and returns its root.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	tmpDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return tmpDir
}

// ResolveConfig runs the parse → override → interpolate stages over the
// given files and returns the resolved document. Overrides use the CLI
// grammar.
func ResolveConfig(t *testing.T, files map[string]string, overrides ...string) (*document.Document, error) {
	t.Helper()
	tmpDir := WriteFiles(t, files)

	ctx := context.Background()
	doc, err := loader.NewMulti(yamlload.New(), hclload.New()).Load(ctx, tmpDir)
	if err != nil {
		return nil, err
	}

	ovs, err := override.ParseAll(overrides)
	if err != nil {
		return nil, err
	}
	if err := override.Apply(ctx, doc, ovs); err != nil {
		return doc, err
	}
	if err := interp.Resolve(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunIntegrationTest writes the config files to a temp dir, builds an App
// over them, and runs it end to end, capturing logs and any panic.
func RunIntegrationTest(t *testing.T, files map[string]string, overrides []string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := WriteFiles(t, files)
	appConfig := &app.Config{
		ConfigPaths: []string{tmpDir},
		Overrides:   overrides,
		LogLevel:    "debug",
		LogFormat:   "text",
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, modules...)
		runErr = testApp.Run(context.Background())
	}()

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
