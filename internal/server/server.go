// Package server exposes poster batches over HTTP. Clients create a batch
// from a template or raw markup, drive it with start, pause, resume, cancel
// and retry, follow its events over a websocket and fetch the artifacts.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/assets"
	"github.com/alnah/go-posterkit/internal/history"
	"github.com/alnah/go-posterkit/internal/logging"
)

// MaxBodyBytes caps request bodies (markup plus variant lists).
const MaxBodyBytes = 2 << 20

// corsMaxAge is how long browsers may cache preflight responses.
const corsMaxAge = 12 * time.Hour

// RunRecorder stores finished runs. *history.Store satisfies it.
type RunRecorder interface {
	Record(ctx context.Context, run history.Run) error
	List(ctx context.Context, limit int) ([]history.Run, error)
	Get(ctx context.Context, id string) (*history.Run, error)
}

// Server holds the batches created through the API. Batches live in memory
// until deleted; each run borrows a mounter from the pool.
type Server struct {
	pool          Pool
	deliverer     posterkit.Deliverer
	history       RunRecorder
	log           *logrus.Logger
	batchOpts     []posterkit.BatchOption
	templates     assets.AssetLoader
	templateNames []string
	allowOrigins  []string
	now           func() time.Time

	router   *gin.Engine
	upgrader websocket.Upgrader

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	batches map[string]*entry
}

// entry is one batch plus the state the server keeps around it.
type entry struct {
	batch      *posterkit.Batch
	lease      *lease
	posterType posterkit.PosterType

	// Guarded by Server.mu. A run is queued until it holds a renderer;
	// cancelRun ends it whether queued or rendering.
	active    bool
	queued    bool
	cancelRun context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithAllowOrigins sets the CORS and websocket origin allowlist.
// "*" allows any origin. Empty keeps same-origin only.
func WithAllowOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowOrigins = origins
	}
}

// WithDeliverer sets where POST /download sends artifacts.
func WithDeliverer(d posterkit.Deliverer) Option {
	return func(s *Server) {
		s.deliverer = d
	}
}

// WithHistory records every finished run.
func WithHistory(r RunRecorder) Option {
	return func(s *Server) {
		s.history = r
	}
}

// WithLogger sets the logger for requests and batch runs.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBatchOptions applies opts to every batch the server creates, before
// the per-request options.
func WithBatchOptions(opts ...posterkit.BatchOption) Option {
	return func(s *Server) {
		s.batchOpts = append(s.batchOpts, opts...)
	}
}

// WithTemplates sets the template loader and the names it advertises.
func WithTemplates(loader assets.AssetLoader, names []string) Option {
	return func(s *Server) {
		if loader != nil {
			s.templates = loader
			s.templateNames = names
		}
	}
}

// New creates a Server. Panics if pool is nil.
func New(pool Pool, opts ...Option) *Server {
	if pool == nil {
		panic("server: New pool must not be nil")
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		pool:          pool,
		log:           logging.Discard(),
		templates:     assets.NewEmbeddedLoader(),
		templateNames: assets.TemplateNames(),
		now:           time.Now,
		baseCtx:       ctx,
		stop:          stop,
		batches:       make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown cancels every running batch and waits for the runs to finish
// recording, or for ctx to expire. Websocket streams are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, e := range s.batches {
		e.batch.Cancel()
	}
	s.mu.Unlock()
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.log))
	router.Use(requestSizeLimiter(MaxBodyBytes))

	if len(s.allowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  s.allowOrigins,
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Disposition"},
			MaxAge:        corsMaxAge,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": s.now().Unix(),
		})
	})

	api := router.Group("/api")
	{
		api.GET("/templates", s.listTemplates)
		api.POST("/parse", s.parse)
		api.GET("/history", s.listHistory)
		api.GET("/history/:id", s.getHistory)

		batches := api.Group("/batches")
		{
			batches.POST("", s.createBatch)
			batches.GET("", s.listBatches)
			batches.GET("/:id", s.getBatch)
			batches.DELETE("/:id", s.deleteBatch)
			batches.POST("/:id/start", s.startBatch)
			batches.POST("/:id/pause", s.pauseBatch)
			batches.POST("/:id/resume", s.resumeBatch)
			batches.POST("/:id/cancel", s.cancelBatch)
			batches.POST("/:id/retry", s.retryBatch)
			batches.POST("/:id/download", s.downloadBatch)
			batches.GET("/:id/events", s.events)
			batches.GET("/:id/tasks/:taskId/artifact", s.artifact)
			batches.GET("/:id/tasks/:taskId/thumbnail", s.thumbnail)
		}
	}
	return router
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return "http://"+r.Host == origin || "https://"+r.Host == origin
}

// run executes one Start call on a pooled mounter and records the outcome.
// ctx is the run's own context, cancelled by POST /cancel and by Shutdown.
func (s *Server) run(ctx context.Context, e *entry) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		e.cancelRun()
		e.active, e.queued, e.cancelRun = false, false, nil
		s.mu.Unlock()
	}()

	log := s.log.WithField("batch", e.batch.ID())

	m, err := s.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("run cancelled before a renderer was free")
		} else {
			log.WithError(err).Warn("no renderer available")
		}
		return
	}
	s.mu.Lock()
	e.queued = false
	s.mu.Unlock()
	e.lease.set(m)
	defer func() {
		e.lease.set(nil)
		s.pool.Release(m)
	}()

	started := s.now()
	err = e.batch.Start(ctx)
	finished := s.now()

	switch {
	case errors.Is(err, posterkit.ErrBatchCancelled):
		log.Info("run cancelled")
	case err != nil:
		log.WithError(err).Warn("run ended with error")
	}

	if s.history == nil {
		return
	}
	rec := history.FromBatch(e.batch, string(e.posterType), err, started, finished)
	// The base context may already be cancelled during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rerr := s.history.Record(ctx, rec); rerr != nil {
		log.WithError(rerr).Warn("recording run history")
	}
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"ip":      c.ClientIP(),
		})
		if last := c.Errors.Last(); last != nil {
			entry = entry.WithError(last.Err)
		}
		entry.Info("request")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
