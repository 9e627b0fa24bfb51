package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mirceamironenco/tunekit/components/hub"
	"github.com/mirceamironenco/tunekit/internal/materialize"
)

// Recipe is one runnable flow over a materialized config.
type Recipe interface {
	// Setup pulls the components the recipe needs out of the result and
	// validates they fit together.
	Setup(ctx context.Context, result *materialize.Result) error
	// Run executes the flow.
	Run(ctx context.Context) error
	// Cleanup releases the component graph. It is called even when Setup
	// or Run failed.
	Cleanup(ctx context.Context) error
}

var (
	registryMu sync.RWMutex
	recipes    = make(map[string]func() Recipe)
)

// Register adds a recipe constructor under a unique name. It panics on a
// duplicate, which surfaces wiring mistakes at startup.
func Register(name string, constructor func() Recipe) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := recipes[name]; exists {
		panic(fmt.Sprintf("recipe %q registered twice", name))
	}
	slog.Debug("Registering recipe.", "name", name)
	recipes[name] = constructor
}

// New returns a fresh instance of the named recipe.
func New(name string) (Recipe, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	constructor, ok := recipes[name]
	if !ok {
		return nil, fmt.Errorf("unknown recipe %q (known: %v)", name, namesLocked())
	}
	return constructor(), nil
}

// Names returns the registered recipe names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(recipes))
	for name := range recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runDownload executes an optional "download" field before the rest of
// Setup, so artifacts referenced by other components exist on disk.
func runDownload(ctx context.Context, result *materialize.Result) error {
	dl, ok, err := materialize.OptionalField[*hub.Downloader](result, "download")
	if err != nil || !ok {
		return err
	}
	return dl.Run(ctx)
}

func init() {
	Register("finetune_lora", func() Recipe { return &LoRAFinetune{} })
	Register("quantize", func() Recipe { return &Quantize{} })
}
