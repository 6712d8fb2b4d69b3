// Package yamlutil wraps goccy/go-yaml for config files, variant lists and
// YAML output, so callers never import the YAML library directly.
package yamlutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal decodes data into v, ignoring unknown fields.
func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// Marshal encodes v as YAML.
func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// variantsDoc is the mapping form of a variants file.
type variantsDoc struct {
	Variants []string `yaml:"variants"`
}

// UnmarshalNames reads a variants list. Both a top-level sequence
// ("- Alice") and a mapping with a "variants" key are accepted.
// Blank entries are kept; callers decide how to treat them.
func UnmarshalNames(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, ErrNilData
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "-") {
		var names []string
		if err := Unmarshal(data, &names); err != nil {
			return nil, err
		}
		return names, nil
	}
	var doc variantsDoc
	if err := UnmarshalStrict(data, &doc); err != nil {
		return nil, err
	}
	return doc.Variants, nil
}
