package config

// Notes:
// - resolveConfigPath tests change the working directory and cannot run in
//   parallel with each other; they use t.Chdir.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.PosterType != "general" || cfg.Token != "{{name}}" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Output.Dir != "posters" || cfg.Output.Suffix != "poster" || cfg.Output.Format != "png" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Render.Scale != 2 {
		t.Errorf("Render.Scale = %v, want 2", cfg.Render.Scale)
	}
	if cfg.History.Path != "" || cfg.Azure.Enabled() {
		t.Error("history and azure should be disabled by default")
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		max     int
		wantErr bool
	}{
		{"empty", "", 10, false},
		{"at limit", "1234567890", 10, false},
		{"over limit", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("f", tt.value, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFieldLength() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrFieldTooLong) {
				t.Errorf("error = %v, want ErrFieldTooLong", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"poster type case-insensitive", func(c *Config) { c.PosterType = "WeChat" }, nil},
		{"unknown poster type", func(c *Config) { c.PosterType = "flyer" }, ErrInvalidValue},
		{"webp", func(c *Config) { c.Output.Format = "webp"; c.Output.Quality = 80 }, nil},
		{"unknown format", func(c *Config) { c.Output.Format = "gif" }, ErrInvalidValue},
		{"quality too high", func(c *Config) { c.Output.Quality = 101 }, ErrInvalidValue},
		{"negative thumbnail", func(c *Config) { c.Output.ThumbnailWidth = -1 }, ErrInvalidValue},
		{"suffix with slash", func(c *Config) { c.Output.Suffix = "a/b" }, ErrInvalidValue},
		{"subject with slash", func(c *Config) { c.Subject = "Q3/Launch" }, ErrInvalidValue},
		{"subject with backslash", func(c *Config) { c.Subject = `Q3\Launch` }, ErrInvalidValue},
		{"variant with slash", func(c *Config) { c.Variants = []string{"Alice", "R&D/Ops"} }, ErrInvalidValue},
		{"scale too high", func(c *Config) { c.Render.Scale = 5 }, ErrInvalidValue},
		{"bad duration", func(c *Config) { c.Render.SettleDelay = "soon" }, ErrInvalidValue},
		{"zero timeout", func(c *Config) { c.Render.Timeout = "0s" }, ErrInvalidValue},
		{"zero task delay ok", func(c *Config) { c.Render.TaskDelay = "0s" }, nil},
		{"azure half set", func(c *Config) { c.Azure.Account = "acct" }, ErrInvalidValue},
		{"azure complete", func(c *Config) { c.Azure.Account, c.Azure.Container = "acct", "posters" }, nil},
		{"negative workers", func(c *Config) { c.Server.Workers = -1 }, ErrInvalidValue},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidValue},
		{"long subject", func(c *Config) { c.Subject = strings.Repeat("s", MaxSubjectLength+1) }, ErrFieldTooLong},
		{"long variant", func(c *Config) { c.Variants = []string{strings.Repeat("v", MaxVariantLength+1)} }, ErrFieldTooLong},
		{"too many variants", func(c *Config) { c.Variants = make([]string, MaxVariants+1) }, ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderConfig_Durations(t *testing.T) {
	t.Parallel()

	d, err := RenderConfig{SettleDelay: "300ms", Timeout: "1m", DownloadStagger: "0s"}.Durations()
	if err != nil {
		t.Fatal(err)
	}
	want := Durations{SettleDelay: 300 * time.Millisecond, Timeout: time.Minute}
	if d != want {
		t.Errorf("Durations() = %+v, want %+v", d, want)
	}

	if _, err := (RenderConfig{TaskDelay: "-1s"}).Durations(); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("negative delay error = %v, want ErrInvalidValue", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, "gala.yaml", `
subject: Spring Gala
posterType: invitation
template: invitation
token: "{{guest}}"
variants:
  - Alice
  - Bob
output:
  dir: out
  format: webp
  quality: 85
render:
  settleDelay: 500ms
azure:
  account: acct
  container: posters
log:
  format: json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Subject != "Spring Gala" || cfg.PosterType != "invitation" || cfg.Token != "{{guest}}" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Variants) != 2 || cfg.Variants[1] != "Bob" {
		t.Errorf("Variants = %v", cfg.Variants)
	}
	if cfg.Output.Dir != "out" || cfg.Output.Format != "webp" || cfg.Output.Quality != 85 {
		t.Errorf("Output = %+v", cfg.Output)
	}
	// Omitted keys keep defaults.
	if cfg.Output.Suffix != "poster" || cfg.Render.Scale != 2 || cfg.Log.Level != "info" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if !cfg.Azure.Enabled() {
		t.Error("Azure.Enabled() = false")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	unknown := writeConfig(t, dir, "unknown.yaml", "subjcet: typo\n")
	invalid := writeConfig(t, dir, "invalid.yaml", "output:\n  format: gif\n")
	broken := writeConfig(t, dir, "broken.yaml", "subject: [unclosed\n")

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty name", "", ErrEmptyConfigName},
		{"missing path", filepath.Join(dir, "nope.yaml"), ErrConfigNotFound},
		{"unknown field", unknown, ErrConfigParse},
		{"invalid value", invalid, ErrInvalidValue},
		{"syntax error", broken, ErrConfigParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := LoadConfig(tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_ByName(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "poster.yml", "subject: From yml\n")
	t.Chdir(dir)

	cfg, err := LoadConfig("poster")
	if err != nil {
		t.Fatalf("LoadConfig(poster) error = %v", err)
	}
	if cfg.Subject != "From yml" {
		t.Errorf("Subject = %q", cfg.Subject)
	}
}

func TestLoadConfig_ByNameNotFound(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("absent-config-name")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("LoadConfig() error = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "absent-config-name.yaml") {
		t.Errorf("error should list tried paths: %v", err)
	}
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths("poster")
	if len(paths) < 2 || paths[0] != "poster.yaml" || paths[1] != "poster.yml" {
		t.Errorf("SearchPaths() = %v", paths)
	}
	for _, p := range paths[2:] {
		if !strings.Contains(p, "go-posterkit") {
			t.Errorf("user path %q not under go-posterkit", p)
		}
	}
}
