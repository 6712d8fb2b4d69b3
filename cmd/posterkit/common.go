package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-posterkit/internal/config"
	"github.com/alnah/go-posterkit/internal/logging"
)

// defaultConfigName is the name searched when a command needs a config
// file and none was given.
const defaultConfigName = "posterkit"

// loadConfig loads the named config (or POSTERKIT_CONFIG) and applies
// environment overrides. Without either, defaults are used.
func loadConfig(name string, env *envConfig) (*config.Config, error) {
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

// newLogger builds the command logger. --log-level wins over the config;
// --verbose and --quiet override both.
func newLogger(cfg config.LogConfig, f commonFlags, w io.Writer) (*logrus.Logger, error) {
	level, format := cfg.Level, cfg.Format
	if f.logLevel != "" {
		level = f.logLevel
	}
	if f.logFormat != "" {
		format = f.logFormat
	}
	switch {
	case f.verbose:
		level = "debug"
	case f.quiet:
		level = "error"
	}

	log, err := logging.New(w, level, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	return log, nil
}
