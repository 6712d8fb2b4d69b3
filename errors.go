package posterkit

import "errors"

// Sentinel errors for library operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrRasterize      = errors.New("rasterization failed")
	ErrRasterTimeout  = errors.New("rasterization timed out")
	ErrEncode         = errors.New("artifact encoding failed")
	ErrPoolClosed     = errors.New("renderer pool is closed")

	// Batch lifecycle errors.
	ErrNoTasks           = errors.New("batch has no tasks")
	ErrBatchRunning      = errors.New("batch is already running")
	ErrBatchCancelled    = errors.New("batch cancelled")
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskNotCompleted  = errors.New("task has no artifact")
	ErrDuplicateTaskID   = errors.New("duplicate task id")
	ErrInvalidCanvasSize = errors.New("invalid canvas size")

	// Input validation errors.
	ErrInvalidPosterType   = errors.New("invalid poster type")
	ErrInvalidFormat       = errors.New("invalid artifact format")
	ErrEmptyTemplate       = errors.New("template markup cannot be empty")
	ErrInvalidArtifactName = errors.New("invalid artifact name")

	// Delivery errors.
	ErrDeliver = errors.New("artifact delivery failed")
)
