package main

// Notes:
// - runParseCmd reads markup from stdin or a file; output is decoded back
//   to check structure rather than compared byte for byte.
// - Highlighting is checked for ANSI escapes only; colors depend on the style.

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-posterkit/internal/yamlutil"
)

// ---------------------------------------------------------------------------
// TestRunParseCmd - Output formats and input sources
// ---------------------------------------------------------------------------

func TestRunParseCmd_JSONFromStdin(t *testing.T) {
	t.Parallel()

	env := newTestEnv("Here you go:\n\n```html\n" + posterMarkup + "\n```\n")
	if err := runParseCmd(nil, env.Environment); err != nil {
		t.Fatalf("runParseCmd() error = %v", err)
	}

	var out struct {
		Result struct {
			Canvas struct {
				Width  int `json:"width"`
				Height int `json:"height"`
			} `json:"canvas"`
			Elements []json.RawMessage `json:"elements"`
		} `json:"result"`
		Validation struct {
			Valid bool `json:"valid"`
		} `json:"validation"`
	}
	if err := json.Unmarshal(env.stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, env.stdout.String())
	}
	if out.Result.Canvas.Width != 400 || out.Result.Canvas.Height != 600 {
		t.Errorf("canvas = %dx%d, want 400x600", out.Result.Canvas.Width, out.Result.Canvas.Height)
	}
	if len(out.Result.Elements) == 0 {
		t.Error("expected at least one element")
	}
	if !out.Validation.Valid {
		t.Error("expected valid markup")
	}
}

func TestRunParseCmd_YAMLFromFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "poster.html", posterMarkup)
	env := newTestEnv("")
	if err := runParseCmd([]string{"--format", "yaml", path}, env.Environment); err != nil {
		t.Fatalf("runParseCmd() error = %v", err)
	}

	var out map[string]any
	if err := yamlutil.Unmarshal(env.stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, env.stdout.String())
	}
	for _, key := range []string{"result", "validation"} {
		if _, ok := out[key]; !ok {
			t.Errorf("YAML output should have key %q", key)
		}
	}
}

func TestRunParseCmd_Source(t *testing.T) {
	t.Parallel()

	env := newTestEnv(posterMarkup)
	if err := runParseCmd([]string{"--source", "-"}, env.Environment); err != nil {
		t.Fatalf("runParseCmd() error = %v", err)
	}
	output := env.stdout.String()
	if !strings.Contains(output, "\x1b[") {
		t.Error("highlighted output should contain ANSI escapes")
	}
	if !strings.Contains(output, "poster-container") {
		t.Error("highlighted output should contain the markup")
	}
}

// ---------------------------------------------------------------------------
// TestRunParseCmd_Errors - Usage and input errors
// ---------------------------------------------------------------------------

func TestRunParseCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantErr  error
		wantCode int
	}{
		{"two inputs", []string{"a.html", "b.html"}, ErrUsage, ExitUsage},
		{"bad format", []string{"--format", "toml"}, ErrUsage, ExitUsage},
		{"missing file", []string{"does-not-exist.html"}, ErrReadInput, ExitIO},
		{"bad poster type", []string{"-t", "flyer"}, nil, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(posterMarkup)
			err := runParseCmd(tt.args, env.Environment)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if code := exitCodeFor(err); code != tt.wantCode {
				t.Errorf("exitCodeFor(%v) = %d, want %d", err, code, tt.wantCode)
			}
		})
	}
}
