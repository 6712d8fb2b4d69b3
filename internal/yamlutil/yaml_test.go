package yamlutil_test

// Notes:
// - Marshal error branch: yaml.Marshal only fails on unmarshalable types
//   (channels, functions), which never reach it in practice.

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-posterkit/internal/yamlutil"
)

type testConfig struct {
	Subject string `yaml:"subject"`
	Scale   int    `yaml:"scale"`
	Enabled bool   `yaml:"enabled"`
}

// ---------------------------------------------------------------------------
// Unmarshal / UnmarshalStrict
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
	}{
		{"valid", []byte("subject: Gala\nscale: 2\nenabled: true"), &testConfig{}, nil},
		{"nil data", nil, &testConfig{}, yamlutil.ErrNilData},
		{"empty data", []byte{}, &testConfig{}, yamlutil.ErrNilData},
		{"nil destination", []byte("subject: x"), nil, yamlutil.ErrNilDestination},
		{"unknown field tolerated", []byte("subject: x\nextra: 1"), &testConfig{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnmarshal_Values(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	if err := yamlutil.Unmarshal([]byte("subject: 春节\nscale: 2\nenabled: true"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Subject != "春节" || cfg.Scale != 2 || !cfg.Enabled {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestUnmarshal_SyntaxError(t *testing.T) {
	t.Parallel()

	err := yamlutil.Unmarshal([]byte("subject: [unclosed"), &testConfig{})
	if err == nil || !strings.HasPrefix(err.Error(), "yamlutil:") {
		t.Errorf("Unmarshal() error = %v, want yamlutil-prefixed error", err)
	}
}

func TestUnmarshalStrict_RejectsUnknownField(t *testing.T) {
	t.Parallel()

	if err := yamlutil.UnmarshalStrict([]byte("subject: x\nsubjcet: y"), &testConfig{}); err == nil {
		t.Error("UnmarshalStrict() error = nil, want unknown field error")
	}
	if err := yamlutil.UnmarshalStrict([]byte("subject: x"), &testConfig{}); err != nil {
		t.Errorf("UnmarshalStrict() error = %v", err)
	}
}

func TestInputSizeLimit(t *testing.T) {
	t.Parallel()

	big := []byte("subject: " + strings.Repeat("a", yamlutil.MaxInputSize))
	if err := yamlutil.Unmarshal(big, &testConfig{}); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("Unmarshal() error = %v, want ErrInputTooLarge", err)
	}
}

// ---------------------------------------------------------------------------
// Marshal
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	data, err := yamlutil.Marshal(testConfig{Subject: "Gala", Scale: 2})
	if err != nil {
		t.Fatal(err)
	}
	var back testConfig
	if err := yamlutil.UnmarshalStrict(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Subject != "Gala" || back.Scale != 2 {
		t.Errorf("decoded = %+v from %s", back, data)
	}
}

// ---------------------------------------------------------------------------
// UnmarshalNames
// ---------------------------------------------------------------------------

func TestUnmarshalNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    []string
		wantErr bool
	}{
		{"sequence", "- Alice\n- Bob\n", []string{"Alice", "Bob"}, false},
		{"mapping", "variants:\n  - Carol\n  - Dan\n", []string{"Carol", "Dan"}, false},
		{"leading blank lines", "\n\n- Eve\n", []string{"Eve"}, false},
		{"unknown key", "names:\n  - x\n", nil, true},
		{"empty", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := yamlutil.UnmarshalNames([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalNames() error = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("UnmarshalNames() = %v, want %v", got, tt.want)
			}
		})
	}
}
