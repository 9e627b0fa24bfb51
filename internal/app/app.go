package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/mirceamironenco/tunekit/internal/ctxlog"
	"github.com/mirceamironenco/tunekit/internal/loader"
	"github.com/mirceamironenco/tunekit/internal/loader/hclload"
	"github.com/mirceamironenco/tunekit/internal/loader/yamlload"
	"github.com/mirceamironenco/tunekit/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	loader   *loader.Multi
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, config *Config, modules ...registry.Module) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All component modules registered.", "count", reg.Len())

	// A factory that fails validation is a programmer error, so we panic.
	if err := reg.Validate(); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		loader:   loader.NewMulti(yamlload.New(), hclload.New()),
		config:   config,
	}
}

// Registry returns the application's registry. This is primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Context returns a context carrying the app's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
