package main

import (
	"io"
	"os"
	"time"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/server"
)

// Renderer is a Mounter that owns a browser.
type Renderer interface {
	posterkit.Mounter
	Close() error
}

// Environment holds injectable dependencies for testability.
// Includes I/O, time, and the browser factories.
type Environment struct {
	Now    func() time.Time
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewRenderer creates the renderer for one CLI batch.
	NewRenderer func(opts ...posterkit.RendererOption) Renderer
	// NewPool creates the renderer pool shared by served batches.
	NewPool func(size int, opts ...posterkit.RendererOption) (server.Pool, io.Closer)
}

// DefaultEnv returns the production environment backed by headless Chrome.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewRenderer: func(opts ...posterkit.RendererOption) Renderer {
			return posterkit.NewRodRenderer(opts...)
		},
		NewPool: func(size int, opts ...posterkit.RendererOption) (server.Pool, io.Closer) {
			p := posterkit.NewRendererPool(size, opts...)
			return server.FromRendererPool(p), p
		},
	}
}
