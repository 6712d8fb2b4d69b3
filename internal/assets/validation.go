package assets

import "fmt"

// MaxAssetNameLength bounds template names taken from requests and config.
const MaxAssetNameLength = 64

// ValidateAssetName checks that a template name is a bare identifier:
// ASCII letters, digits, '-' and '_'. Separators, dots and anything else
// that could reach outside the templates directory are rejected.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > MaxAssetNameLength {
		return fmt.Errorf("%w: %d chars (max %d)", ErrInvalidAssetName, len(name), MaxAssetNameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return nil
}
