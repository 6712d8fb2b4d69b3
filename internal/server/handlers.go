package server

import (
	"context"
	"fmt"
	"maps"
	"mime"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/assets"
	"github.com/alnah/go-posterkit/internal/history"
	"github.com/alnah/go-posterkit/internal/markup"
)

// ParseRequest is the body of POST /api/parse.
type ParseRequest struct {
	Markup     string `json:"markup" binding:"required"`
	PosterType string `json:"posterType"`
}

// ParseResponse pairs a parse result with its validation.
type ParseResponse struct {
	Result     *posterkit.ParseResult `json:"result"`
	Validation posterkit.Validation   `json:"validation"`
}

// CreateBatchRequest is the body of POST /api/batches. Markup, when set,
// wins over Template and may be a chat-style response with a fenced block.
type CreateBatchRequest struct {
	Subject        string   `json:"subject" binding:"required"`
	PosterType     string   `json:"posterType"`
	Template       string   `json:"template"`
	Markup         string   `json:"markup"`
	Token          string   `json:"token"`
	Variants       []string `json:"variants" binding:"required,min=1"`
	Suffix         string   `json:"suffix"`
	Format         string   `json:"format"`
	Quality        int      `json:"quality"`
	ThumbnailWidth int      `json:"thumbnailWidth"`
}

// BatchResponse describes a batch and its canvas.
type BatchResponse struct {
	posterkit.RunState
	PosterType posterkit.PosterType `json:"posterType"`
	Canvas     posterkit.Size       `json:"canvas"`
}

func (s *Server) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": s.templateNames})
}

func (s *Server) parse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	pt, err := posterkit.ParsePosterType(req.PosterType)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result := posterkit.Parse(req.Markup, pt)
	c.JSON(http.StatusOK, ParseResponse{
		Result:     result,
		Validation: posterkit.Validate(result.Elements),
	})
}

func (s *Server) createBatch(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if req.ThumbnailWidth < 0 {
		s.respondError(c, fmt.Errorf("%w: thumbnailWidth must not be negative", ErrBadRequest))
		return
	}

	pt, err := posterkit.ParsePosterType(req.PosterType)
	if err != nil {
		s.respondError(c, err)
		return
	}
	format, err := posterkit.ParseFormat(req.Format)
	if err != nil {
		s.respondError(c, err)
		return
	}

	tmpl, err := s.resolveMarkup(req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	specs := posterkit.ExpandVariants(tmpl, req.Token, req.Variants)
	canvas := posterkit.Parse(tmpl, pt).Canvas

	l := &lease{}
	opts := slices.Clone(s.batchOpts)
	opts = append(opts,
		posterkit.WithLogger(s.log),
		posterkit.WithSuffix(req.Suffix),
		posterkit.WithFormat(format, req.Quality),
		posterkit.WithThumbnail(req.ThumbnailWidth),
	)
	b, err := posterkit.NewBatch(specs, canvas.Size(), req.Subject, l, opts...)
	if err != nil {
		s.respondError(c, err)
		return
	}

	e := &entry{batch: b, lease: l, posterType: pt}
	s.mu.Lock()
	s.batches[b.ID()] = e
	s.mu.Unlock()

	c.JSON(http.StatusCreated, batchResponse(e, canvas.Size()))
}

// resolveMarkup returns the request's markup, or the named template.
func (s *Server) resolveMarkup(req CreateBatchRequest) (string, error) {
	if req.Markup != "" {
		return markup.ExtractMarkup(req.Markup), nil
	}
	name := req.Template
	if name == "" {
		name = assets.DefaultTemplateName
	}
	tmpl, err := s.templates.LoadTemplate(name)
	if err != nil {
		return "", err
	}
	if tmpl == "" {
		return "", posterkit.ErrEmptyTemplate
	}
	return tmpl, nil
}

func batchResponse(e *entry, size posterkit.Size) BatchResponse {
	return BatchResponse{
		RunState:   e.batch.Snapshot(),
		PosterType: e.posterType,
		Canvas:     size,
	}
}

func (s *Server) lookup(c *gin.Context) (*entry, bool) {
	id := c.Param("id")
	s.mu.Lock()
	e, ok := s.batches[id]
	s.mu.Unlock()
	if !ok {
		s.respondError(c, fmt.Errorf("%w: %q", ErrBatchNotFound, id))
	}
	return e, ok
}

func (s *Server) listBatches(c *gin.Context) {
	s.mu.Lock()
	// Batch IDs are ULIDs, so key order is creation order.
	ids := slices.Sorted(maps.Keys(s.batches))
	entries := make([]*entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, s.batches[id])
	}
	s.mu.Unlock()

	states := make([]posterkit.RunState, 0, len(entries))
	for _, e := range entries {
		states = append(states, e.batch.Snapshot())
	}
	c.JSON(http.StatusOK, gin.H{"batches": states})
}

func (s *Server) getBatch(c *gin.Context) {
	if e, ok := s.lookup(c); ok {
		c.JSON(http.StatusOK, e.batch.Snapshot())
	}
}

func (s *Server) deleteBatch(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	s.mu.Lock()
	if e.active {
		s.mu.Unlock()
		s.respondError(c, ErrBatchActive)
		return
	}
	delete(s.batches, e.batch.ID())
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) startBatch(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	s.mu.Lock()
	if e.active {
		s.mu.Unlock()
		s.respondError(c, posterkit.ErrBatchRunning)
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	e.active, e.queued, e.cancelRun = true, true, cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, e)
	c.JSON(http.StatusAccepted, e.batch.Snapshot())
}

// pauseBatch is refused while the run waits for a renderer: the batch
// has not started, so there is no task boundary to hold it at yet.
func (s *Server) pauseBatch(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	s.mu.Lock()
	queued := e.queued
	s.mu.Unlock()
	if queued {
		s.respondError(c, ErrBatchQueued)
		return
	}
	e.batch.Pause()
	c.JSON(http.StatusOK, e.batch.Snapshot())
}

func (s *Server) resumeBatch(c *gin.Context) {
	if e, ok := s.lookup(c); ok {
		e.batch.Resume()
		c.JSON(http.StatusOK, e.batch.Snapshot())
	}
}

func (s *Server) cancelBatch(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	s.mu.Lock()
	if e.cancelRun != nil {
		e.cancelRun()
	}
	s.mu.Unlock()
	e.batch.Cancel()
	c.JSON(http.StatusOK, e.batch.Snapshot())
}

func (s *Server) retryBatch(c *gin.Context) {
	if e, ok := s.lookup(c); ok {
		n := e.batch.RetryFailed()
		c.JSON(http.StatusOK, gin.H{"retried": n})
	}
}

func (s *Server) downloadBatch(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	if s.deliverer == nil {
		s.respondError(c, ErrNoDeliverer)
		return
	}
	n, err := e.batch.DownloadAll(c.Request.Context(), s.deliverer)
	if err != nil {
		s.respondError(c, fmt.Errorf("%w: %d delivered: %v", posterkit.ErrDeliver, n, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered": n})
}

// responseDeliverer writes one artifact as the HTTP response body.
type responseDeliverer struct {
	c *gin.Context
}

func (d responseDeliverer) Deliver(_ context.Context, name string, art *posterkit.Artifact) error {
	d.c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	d.c.Data(http.StatusOK, art.Format.MIMEType(), art.Data)
	return nil
}

func (s *Server) artifact(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := e.batch.DownloadOne(c.Request.Context(), c.Param("taskId"), responseDeliverer{c: c}); err != nil {
		s.respondError(c, err)
	}
}

func (s *Server) thumbnail(c *gin.Context) {
	e, ok := s.lookup(c)
	if !ok {
		return
	}
	art, _, err := e.batch.Artifact(c.Param("taskId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if len(art.Thumbnail) == 0 {
		s.respondError(c, ErrNoThumbnail)
		return
	}
	c.Data(http.StatusOK, "image/png", art.Thumbnail)
}

func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		s.respondError(c, ErrHistoryDisabled)
		return
	}
	limit := history.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(c, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		limit = n
	}
	runs, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getHistory(c *gin.Context) {
	if s.history == nil {
		s.respondError(c, ErrHistoryDisabled)
		return
	}
	run, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// Compile-time interface check.
var _ posterkit.Deliverer = responseDeliverer{}
