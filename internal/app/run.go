package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/mirceamironenco/tunekit/internal/document"
	"github.com/mirceamironenco/tunekit/internal/interp"
	"github.com/mirceamironenco/tunekit/internal/materialize"
	"github.com/mirceamironenco/tunekit/internal/override"
	"github.com/mirceamironenco/tunekit/internal/recipe"
)

// Run resolves the configuration and executes the selected recipe.
func (a *App) Run(ctx context.Context) error {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Run method started.")

	doc, err := a.loader.Load(ctx, a.config.ConfigPaths...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.logger.Debug("Configuration parsed.", "paths", a.config.ConfigPaths)

	overrides, err := override.ParseAll(a.config.Overrides)
	if err != nil {
		return err
	}
	if err := override.Apply(ctx, doc, overrides); err != nil {
		return err
	}
	a.logger.Debug("Overrides applied.", "count", len(overrides))

	if err := interp.Resolve(ctx, doc); err != nil {
		return err
	}
	a.logger.Debug("References resolved.")

	if a.config.ValidateOnly {
		fmt.Fprint(a.outW, document.Render(doc))
		a.logger.Info("✅ Config is valid.")
		return nil
	}

	recipeName, err := a.recipeName(doc)
	if err != nil {
		return err
	}

	a.logger.Info("🚀 Materializing components.")
	result, err := materialize.New(a.registry).Materialize(ctx, doc)
	if err != nil {
		if result != nil {
			err = errors.Join(err, result.Close())
		}
		return err
	}
	a.logger.Info("✅ Components constructed.", "count", len(result.Components()))

	rec, err := recipe.New(recipeName)
	if err != nil {
		result.Close()
		return err
	}

	a.logger.Info("🚀 Running recipe.", "recipe", recipeName)
	defer func() {
		if cleanupErr := rec.Cleanup(ctx); cleanupErr != nil {
			a.logger.Warn("Recipe cleanup failed.", "error", cleanupErr)
		}
	}()
	if err := rec.Setup(ctx, result); err != nil {
		return fmt.Errorf("recipe setup: %w", err)
	}
	if err := rec.Run(ctx); err != nil {
		return fmt.Errorf("recipe run: %w", err)
	}

	a.logger.Info("🏁 Recipe finished.", "recipe", recipeName)
	return nil
}

// recipeName resolves which recipe to run: the CLI flag wins, then the
// config's top-level 'recipe' field.
func (a *App) recipeName(doc *document.Document) (string, error) {
	if a.config.Recipe != "" {
		return a.config.Recipe, nil
	}
	path, err := document.ParsePath("recipe")
	if err != nil {
		return "", err
	}
	v, err := doc.Lookup(path)
	if err != nil {
		return "", fmt.Errorf("no recipe selected: pass --recipe or set a top-level 'recipe' field (known: %v)", recipe.Names())
	}
	if v.Kind() != document.KindScalar || v.Scalar().Type() != cty.String {
		return "", fmt.Errorf("'recipe' field must be a string")
	}
	return v.Scalar().AsString(), nil
}
