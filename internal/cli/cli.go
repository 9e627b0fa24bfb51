// Package cli parses command-line arguments into an app configuration,
// decoupled from the process entrypoint so parsing is testable.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mirceamironenco/tunekit/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// configList collects repeated --config flags.
type configList []string

func (c *configList) String() string { return strings.Join(*c, ",") }

func (c *configList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating if the program should exit cleanly, or
// an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("tunekit", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
tunekit - Typed, overridable config resolution for fine-tuning recipes.

Usage:
  tunekit [options] [CONFIG_PATH] [KEY=VALUE ...]

Arguments:
  CONFIG_PATH
    Path to a config file (.yaml, .yml, .hcl) or a directory of them.
  KEY=VALUE
    Dotted-path overrides applied after parsing. Prefix with '+' to add
    a new key to a component's arguments, or use '~KEY' to remove one.

Options:
`)
		flagSet.PrintDefaults()
	}

	var configs configList
	flagSet.Var(&configs, "config", "Path to a config file or directory. Repeatable; later files win.")
	flagSet.Var(&configs, "c", "Path to a config file or directory (shorthand).")
	recipeFlag := flagSet.String("recipe", "", "Name of the recipe to run. Defaults to the config's 'recipe' field.")
	validateFlag := flagSet.Bool("validate-only", false, "Resolve and print the config without constructing components.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	// Positionals: an optional config path first, then overrides. Anything
	// containing '=' or starting with the removal prefix is an override.
	var overrides []string
	for _, arg := range flagSet.Args() {
		if strings.Contains(arg, "=") || strings.HasPrefix(arg, "~") {
			overrides = append(overrides, arg)
			continue
		}
		if len(overrides) > 0 {
			return nil, false, &ExitError{Code: 2,
				Message: fmt.Sprintf("config path %q must come before overrides", arg)}
		}
		configs = append(configs, arg)
	}
	slog.Debug("Config paths determined.", "paths", configs, "overrides", len(overrides))

	if len(configs) == 0 {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPaths:  configs,
		Overrides:    overrides,
		Recipe:       *recipeFlag,
		ValidateOnly: *validateFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
