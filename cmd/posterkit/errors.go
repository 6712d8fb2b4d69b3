package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage           = errors.New("invalid arguments")
	ErrNoSubject       = errors.New("no subject specified")
	ErrNoVariants      = errors.New("no variant names given")
	ErrReadTemplate    = errors.New("failed to read template file")
	ErrReadVariants    = errors.New("failed to read variants file")
	ErrReadInput       = errors.New("failed to read markup")
	ErrCreateOutputDir = errors.New("failed to create output directory")
	ErrInvalidMarkup   = errors.New("markup has invalid elements")
	ErrTasksFailed     = errors.New("some posters failed")
	ErrUpload          = errors.New("azure upload failed")
	ErrServe           = errors.New("server failed")
)

// File permission constants.
const (
	dirPermissions = 0o750 // rwxr-x---: owner full, group read+execute
)

// usageError wraps a flag parsing error so it maps to ExitUsage.
// Help requests pass through unchanged.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}
