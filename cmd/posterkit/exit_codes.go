package main

import (
	"errors"
	"os"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/assets"
	"github.com/alnah/go-posterkit/internal/config"
	"github.com/alnah/go-posterkit/internal/hints"
	"github.com/alnah/go-posterkit/internal/history"
)

// Exit codes for the posterkit CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess     = 0   // All posters rendered
	ExitGeneral     = 1   // General/unexpected error, or some posters failed
	ExitUsage       = 2   // Invalid flags, config, or validation
	ExitIO          = 3   // File not found, permission denied, delivery failed
	ExitBrowser     = 4   // Browser/Chrome errors
	ExitInterrupted = 130 // 128 + SIGINT: the run was cancelled
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, posterkit.ErrBatchCancelled) {
		return ExitInterrupted
	}

	// Browser errors (exit 4)
	if errors.Is(err, posterkit.ErrBrowserConnect) ||
		errors.Is(err, posterkit.ErrPageCreate) ||
		errors.Is(err, posterkit.ErrPageLoad) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadTemplate) ||
		errors.Is(err, ErrReadVariants) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, ErrUpload) ||
		errors.Is(err, posterkit.ErrDeliver) ||
		errors.Is(err, history.ErrOpen) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoSubject) ||
		errors.Is(err, ErrNoVariants) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, posterkit.ErrInvalidPosterType) ||
		errors.Is(err, posterkit.ErrInvalidFormat) ||
		errors.Is(err, posterkit.ErrEmptyTemplate) ||
		errors.Is(err, posterkit.ErrNoTasks) ||
		errors.Is(err, posterkit.ErrInvalidCanvasSize) ||
		errors.Is(err, posterkit.ErrInvalidArtifactName) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, history.ErrRunNotFound) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, posterkit.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, posterkit.ErrRasterTimeout):
		return hints.ForRasterTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths(defaultConfigName))
	case errors.Is(err, assets.ErrTemplateNotFound):
		return hints.ForTemplateNotFound(assets.TemplateNames())
	case errors.Is(err, ErrNoVariants):
		return hints.ForNoVariants()
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, ErrUpload):
		return hints.ForAzure()
	default:
		return ""
	}
}
