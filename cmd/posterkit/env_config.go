package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-posterkit/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // POSTERKIT_CONFIG: config file name or path
	Subject    string        // POSTERKIT_SUBJECT: subject name
	Template   string        // POSTERKIT_TEMPLATE: template name or path
	OutputDir  string        // POSTERKIT_OUTPUT_DIR: artifact directory
	Format     string        // POSTERKIT_FORMAT: png or webp
	Timeout    time.Duration // POSTERKIT_TIMEOUT: per-task timeout
	History    string        // POSTERKIT_HISTORY: SQLite history path
	LogLevel   string        // POSTERKIT_LOG_LEVEL: logrus level
	Addr       string        // POSTERKIT_ADDR: serve listen address
	Workers    int           // POSTERKIT_WORKERS: serve renderer pool size
	AzureKey   string        // POSTERKIT_AZURE_KEY: storage account key
}

// knownEnvVars lists valid POSTERKIT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"POSTERKIT_CONFIG":     true,
	"POSTERKIT_SUBJECT":    true,
	"POSTERKIT_TEMPLATE":   true,
	"POSTERKIT_OUTPUT_DIR": true,
	"POSTERKIT_FORMAT":     true,
	"POSTERKIT_TIMEOUT":    true,
	"POSTERKIT_HISTORY":    true,
	"POSTERKIT_LOG_LEVEL":  true,
	"POSTERKIT_ADDR":       true,
	"POSTERKIT_WORKERS":    true,
	"POSTERKIT_AZURE_KEY":  true,
	"POSTERKIT_CONTAINER":  true, // doctor container override
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("POSTERKIT_CONFIG"),
		Subject:    os.Getenv("POSTERKIT_SUBJECT"),
		Template:   os.Getenv("POSTERKIT_TEMPLATE"),
		OutputDir:  os.Getenv("POSTERKIT_OUTPUT_DIR"),
		Format:     os.Getenv("POSTERKIT_FORMAT"),
		History:    os.Getenv("POSTERKIT_HISTORY"),
		LogLevel:   os.Getenv("POSTERKIT_LOG_LEVEL"),
		Addr:       os.Getenv("POSTERKIT_ADDR"),
		AzureKey:   os.Getenv("POSTERKIT_AZURE_KEY"),
	}

	if timeout := os.Getenv("POSTERKIT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("POSTERKIT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized POSTERKIT_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "POSTERKIT_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to a freshly loaded
// config. A value is set only when the file left the field at its default,
// so precedence is CLI flags > env vars > config file > defaults
// (flags are applied afterwards).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	defaults := config.DefaultConfig()

	if env.Subject != "" && cfg.Subject == "" {
		cfg.Subject = env.Subject
	}
	if env.Template != "" && cfg.Template == "" {
		cfg.Template = env.Template
	}
	if env.OutputDir != "" && cfg.Output.Dir == defaults.Output.Dir {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Format != "" && cfg.Output.Format == defaults.Output.Format {
		cfg.Output.Format = env.Format
	}
	if env.Timeout > 0 && cfg.Render.Timeout == "" {
		cfg.Render.Timeout = env.Timeout.String()
	}
	if env.History != "" && cfg.History.Path == "" {
		cfg.History.Path = env.History
	}
	if env.LogLevel != "" && cfg.Log.Level == defaults.Log.Level {
		cfg.Log.Level = env.LogLevel
	}
	if env.Addr != "" && cfg.Server.Addr == defaults.Server.Addr {
		cfg.Server.Addr = env.Addr
	}
	if env.Workers > 0 && cfg.Server.Workers == 0 {
		cfg.Server.Workers = env.Workers
	}
}
