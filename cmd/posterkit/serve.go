package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/assets"
	"github.com/alnah/go-posterkit/internal/config"
	"github.com/alnah/go-posterkit/internal/history"
	"github.com/alnah/go-posterkit/internal/server"
)

// Server timeouts. WriteTimeout stays zero: event websockets and large
// artifact downloads are long-lived.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// runServeCmd serves the HTTP API until SIGINT or SIGTERM.
func runServeCmd(args []string, env *Environment) error {
	f, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	app, cfg, cleanup, err := buildServer(f, env)
	if err != nil {
		return err
	}
	defer cleanup()

	log := app.log
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.srv.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrServe, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Batches first: their event streams are hijacked connections that
	// http.Server.Shutdown does not wait for.
	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("batches did not stop in time")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%w: shutdown: %w", ErrServe, err)
	}
	log.Info("server stopped")
	return nil
}

// servedApp is a configured API server plus the logger it uses.
type servedApp struct {
	srv *server.Server
	log *logrus.Logger
}

// buildServer resolves config and wires the renderer pool, history store,
// templates and deliverer into a server. cleanup releases the pool and store.
func buildServer(f *serveFlags, env *Environment) (*servedApp, *config.Config, func(), error) {
	envCfg := loadEnvConfig()
	cfg, err := loadConfig(f.common.config, envCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	mergeServeFlags(f, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	log, err := newLogger(cfg.Log, f.common, env.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}

	batchOpts, rendererOpts, err := buildBatchOptions(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	resolver, err := assets.NewAssetResolver(cfg.TemplatesDir)
	if err != nil {
		return nil, nil, nil, err
	}
	if resolver.HasCustomLoader() {
		log.WithField("dir", cfg.TemplatesDir).Info("custom templates enabled")
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	size := posterkit.ResolvePoolSize(cfg.Server.Workers)
	pool, poolCloser := env.NewPool(size, rendererOpts...)
	closers = append(closers, func() {
		if err := poolCloser.Close(); err != nil {
			log.WithError(err).Warn("closing renderer pool")
		}
	})
	log.WithField("renderers", size).Debug("renderer pool ready")

	opts := []server.Option{
		server.WithLogger(log),
		server.WithBatchOptions(batchOpts...),
		server.WithTemplates(resolver, resolver.Names()),
		server.WithAllowOrigins(cfg.Server.AllowOrigins),
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = store.Close() })
		opts = append(opts, server.WithHistory(store))
	}

	d, err := buildDeliverer(cfg, envCfg, false)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	opts = append(opts, server.WithDeliverer(d))

	return &servedApp{srv: server.New(pool, opts...), log: log}, cfg, cleanup, nil
}

// mergeServeFlags copies explicitly set flags over config values (CLI wins).
func mergeServeFlags(f *serveFlags, cfg *config.Config) {
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.workers != 0 {
		cfg.Server.Workers = f.workers
	}
	if f.templatesDir != "" {
		cfg.TemplatesDir = f.templatesDir
	}
	if f.timeout != "" {
		cfg.Render.Timeout = f.timeout
	}
	if f.history != "" {
		cfg.History.Path = f.history
	}
	if len(f.allowOrigins) > 0 {
		cfg.Server.AllowOrigins = f.allowOrigins
	}
	if f.common.logLevel != "" {
		cfg.Log.Level = f.common.logLevel
	}
	if f.common.logFormat != "" {
		cfg.Log.Format = f.common.logFormat
	}
}
