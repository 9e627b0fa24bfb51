package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // yaml/hcl files or directories, later ones win
	Overrides   []string // KEY=VALUE, +KEY=VALUE, ~KEY

	Recipe       string // empty means the config's 'recipe' field decides
	ValidateOnly bool
	LogFormat    string
	LogLevel     string
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one config path is required")
	}
	return &cfg, nil
}
