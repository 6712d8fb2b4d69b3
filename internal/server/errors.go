package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/assets"
	"github.com/alnah/go-posterkit/internal/history"
)

// Sentinel errors for request handling.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrBatchNotFound   = errors.New("batch not found")
	ErrBatchActive     = errors.New("batch is running")
	ErrBatchQueued     = errors.New("batch is waiting for a renderer")
	ErrNoDeliverer     = errors.New("no artifact destination configured")
	ErrHistoryDisabled = errors.New("run history is disabled")
	ErrNoThumbnail     = errors.New("artifact has no thumbnail")
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusFor maps library and handler errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, posterkit.ErrInvalidPosterType),
		errors.Is(err, posterkit.ErrInvalidFormat),
		errors.Is(err, posterkit.ErrEmptyTemplate),
		errors.Is(err, posterkit.ErrNoTasks),
		errors.Is(err, posterkit.ErrInvalidCanvasSize),
		errors.Is(err, posterkit.ErrDuplicateTaskID),
		errors.Is(err, posterkit.ErrInvalidArtifactName),
		errors.Is(err, assets.ErrTemplateNotFound),
		errors.Is(err, assets.ErrInvalidAssetName):
		return http.StatusBadRequest
	case errors.Is(err, ErrBatchNotFound),
		errors.Is(err, ErrNoThumbnail),
		errors.Is(err, posterkit.ErrTaskNotFound),
		errors.Is(err, history.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBatchActive),
		errors.Is(err, ErrBatchQueued),
		errors.Is(err, posterkit.ErrBatchRunning),
		errors.Is(err, posterkit.ErrTaskNotCompleted):
		return http.StatusConflict
	case errors.Is(err, ErrNoDeliverer),
		errors.Is(err, ErrHistoryDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, posterkit.ErrDeliver):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	code := statusFor(err)
	entry := s.log.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
	})
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
	})
}
