package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-posterkit/internal/logging"
	"github.com/alnah/go-posterkit/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxSubjectLength   = 200  // Longer subjects are truncated in filenames anyway
	MaxNameLength      = 100  // Template name, poster type, suffix
	MaxTokenLength     = 50   // Placeholder token
	MaxVariantLength   = 200  // One variant name
	MaxVariants        = 1000 // Names per batch
	MaxPathLength      = 4096 // Filesystem paths
	MaxAddrLength      = 255  // host:port
	MaxAzureNameLength = 63   // Storage account and container names
)

// Render and output bounds.
const (
	MaxScale          = 4.0
	MinQuality        = 1
	MaxQuality        = 100
	MaxThumbnailWidth = 4096
)

// Config holds all configuration for a poster batch and the HTTP service.
type Config struct {
	Subject      string        `yaml:"subject"`
	PosterType   string        `yaml:"posterType"`   // general, invitation, wechat
	Template     string        `yaml:"template"`     // Built-in name or path to an .html file
	TemplatesDir string        `yaml:"templatesDir"` // Custom templates overriding built-ins
	Token        string        `yaml:"token"`        // Placeholder replaced by each variant
	Variants     []string      `yaml:"variants"`
	VariantsFile string        `yaml:"variantsFile"` // YAML list or plain text, one name per line
	Output       OutputConfig  `yaml:"output"`
	Render       RenderConfig  `yaml:"render"`
	History      HistoryConfig `yaml:"history"`
	Azure        AzureConfig   `yaml:"azure"`
	Server       ServerConfig  `yaml:"server"`
	Log          LogConfig     `yaml:"log"`
}

// OutputConfig defines artifact naming and encoding.
type OutputConfig struct {
	Dir            string `yaml:"dir"`
	Suffix         string `yaml:"suffix"`
	Format         string `yaml:"format"`         // "png" or "webp"
	Quality        int    `yaml:"quality"`        // WebP quality 1-100 (0 = default)
	ThumbnailWidth int    `yaml:"thumbnailWidth"` // 0 = no thumbnail
}

// RenderConfig defines rasterization pacing. Durations use Go syntax ("300ms").
type RenderConfig struct {
	Scale           float64 `yaml:"scale"`
	SettleDelay     string  `yaml:"settleDelay"`
	TaskDelay       string  `yaml:"taskDelay"`
	Timeout         string  `yaml:"timeout"`
	DownloadStagger string  `yaml:"downloadStagger"`
}

// HistoryConfig locates the SQLite run history. Empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// AzureConfig selects blob delivery. The key comes from POSTERKIT_AZURE_KEY
// and is never read from the file.
type AzureConfig struct {
	Account   string `yaml:"account"`
	Container string `yaml:"container"`
	Prefix    string `yaml:"prefix"`
}

// ServerConfig defines the HTTP service.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allowOrigins"`
	Workers      int      `yaml:"workers"` // Renderer pool size (0 = auto)
}

// LogConfig defines logger level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Durations holds the parsed RenderConfig durations.
type Durations struct {
	SettleDelay     time.Duration
	TaskDelay       time.Duration
	Timeout         time.Duration
	DownloadStagger time.Duration
}

// Enabled reports whether blob delivery is configured.
func (a AzureConfig) Enabled() bool {
	return a.Account != "" && a.Container != ""
}

// Durations parses the render durations. Empty values stay zero so callers
// keep their own defaults.
func (r RenderConfig) Durations() (Durations, error) {
	var d Durations
	fields := []struct {
		name     string
		value    string
		dst      *time.Duration
		positive bool
	}{
		{"render.settleDelay", r.SettleDelay, &d.SettleDelay, false},
		{"render.taskDelay", r.TaskDelay, &d.TaskDelay, false},
		{"render.timeout", r.Timeout, &d.Timeout, true},
		{"render.downloadStagger", r.DownloadStagger, &d.DownloadStagger, false},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		v, err := time.ParseDuration(f.value)
		if err != nil {
			return Durations{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.name, err)
		}
		if v < 0 || (f.positive && v == 0) {
			return Durations{}, fmt.Errorf("%w: %s: must be %s, got %s", ErrInvalidValue, f.name, boundWord(f.positive), f.value)
		}
		*f.dst = v
	}
	return d, nil
}

func boundWord(positive bool) string {
	if positive {
		return "positive"
	}
	return "non-negative"
}

// pathSeparators may not appear in filename segments.
const pathSeparators = "/\\\x00"

// Validate checks field lengths and enum values.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"subject", c.Subject, MaxSubjectLength},
		{"posterType", c.PosterType, MaxNameLength},
		{"template", c.Template, MaxPathLength},
		{"templatesDir", c.TemplatesDir, MaxPathLength},
		{"token", c.Token, MaxTokenLength},
		{"variantsFile", c.VariantsFile, MaxPathLength},
		{"output.dir", c.Output.Dir, MaxPathLength},
		{"output.suffix", c.Output.Suffix, MaxNameLength},
		{"history.path", c.History.Path, MaxPathLength},
		{"azure.account", c.Azure.Account, MaxAzureNameLength},
		{"azure.container", c.Azure.Container, MaxAzureNameLength},
		{"azure.prefix", c.Azure.Prefix, MaxPathLength},
		{"server.addr", c.Server.Addr, MaxAddrLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	if len(c.Variants) > MaxVariants {
		return fmt.Errorf("%w: variants (%d names, max %d)", ErrFieldTooLong, len(c.Variants), MaxVariants)
	}
	for i, v := range c.Variants {
		if err := validateFieldLength(fmt.Sprintf("variants[%d]", i), v, MaxVariantLength); err != nil {
			return err
		}
	}

	if c.PosterType != "" {
		switch strings.ToLower(strings.TrimSpace(c.PosterType)) {
		case "general", "invitation", "wechat":
			// valid
		default:
			return fmt.Errorf("%w: posterType %q (must be general, invitation, or wechat)", ErrInvalidValue, c.PosterType)
		}
	}

	// Subject, variants and suffix become artifact filename segments.
	if strings.ContainsAny(c.Subject, pathSeparators) {
		return fmt.Errorf("%w: subject %q must not contain path separators", ErrInvalidValue, c.Subject)
	}
	for i, v := range c.Variants {
		if strings.ContainsAny(v, pathSeparators) {
			return fmt.Errorf("%w: variants[%d] %q must not contain path separators", ErrInvalidValue, i, v)
		}
	}
	if strings.ContainsAny(c.Output.Suffix, pathSeparators) {
		return fmt.Errorf("%w: output.suffix %q must not contain path separators", ErrInvalidValue, c.Output.Suffix)
	}
	if c.Output.Format != "" {
		switch strings.ToLower(c.Output.Format) {
		case "png", "webp":
			// valid
		default:
			return fmt.Errorf("%w: output.format %q (must be png or webp)", ErrInvalidValue, c.Output.Format)
		}
	}
	if c.Output.Quality != 0 && (c.Output.Quality < MinQuality || c.Output.Quality > MaxQuality) {
		return fmt.Errorf("%w: output.quality must be between %d and %d, got %d", ErrInvalidValue, MinQuality, MaxQuality, c.Output.Quality)
	}
	if c.Output.ThumbnailWidth < 0 || c.Output.ThumbnailWidth > MaxThumbnailWidth {
		return fmt.Errorf("%w: output.thumbnailWidth must be between 0 and %d, got %d", ErrInvalidValue, MaxThumbnailWidth, c.Output.ThumbnailWidth)
	}

	if c.Render.Scale < 0 || c.Render.Scale > MaxScale {
		return fmt.Errorf("%w: render.scale must be between 0 and %.0f, got %.2f", ErrInvalidValue, MaxScale, c.Render.Scale)
	}
	if _, err := c.Render.Durations(); err != nil {
		return err
	}

	if (c.Azure.Account == "") != (c.Azure.Container == "") {
		return fmt.Errorf("%w: azure.account and azure.container must be set together", ErrInvalidValue)
	}

	if c.Server.Workers < 0 {
		return fmt.Errorf("%w: server.workers must be non-negative, got %d", ErrInvalidValue, c.Server.Workers)
	}

	if err := logging.Validate(c.Log.Level, c.Log.Format); err != nil {
		return fmt.Errorf("%w: log: %v", ErrInvalidValue, err)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
// Loaded files are decoded on top of it, so omitted keys keep these values.
func DefaultConfig() *Config {
	return &Config{
		PosterType: "general",
		Token:      "{{name}}",
		Output: OutputConfig{
			Dir:    "posters",
			Suffix: "poster",
			Format: "png",
		},
		Render: RenderConfig{Scale: 2},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists the candidate files for a config name, in lookup order:
// current directory first, then ~/.config/go-posterkit/, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-posterkit", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing SearchPaths entry.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
