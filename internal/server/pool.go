package server

import (
	"context"
	"errors"
	"sync"

	posterkit "github.com/alnah/go-posterkit"
)

// ErrNoRenderer is returned by a batch's mounter while the batch holds no
// renderer from the pool.
var ErrNoRenderer = errors.New("no renderer leased")

// Pool hands out mounters for the duration of one batch run. Acquire blocks
// while every mounter is in use, until ctx is done.
type Pool interface {
	Acquire(ctx context.Context) (posterkit.Mounter, error)
	Release(posterkit.Mounter)
}

// rendererPool adapts *posterkit.RendererPool to Pool.
type rendererPool struct {
	p *posterkit.RendererPool
}

// FromRendererPool wraps a browser renderer pool.
func FromRendererPool(p *posterkit.RendererPool) Pool {
	return rendererPool{p: p}
}

func (r rendererPool) Acquire(ctx context.Context) (posterkit.Mounter, error) {
	return r.p.Acquire(ctx)
}

func (r rendererPool) Release(m posterkit.Mounter) {
	if rr, ok := m.(*posterkit.RodRenderer); ok {
		r.p.Release(rr)
	}
}

// lease is the fixed Mounter a Batch is built with. It forwards to whichever
// pooled mounter the batch currently holds.
type lease struct {
	mu sync.Mutex
	m  posterkit.Mounter
}

func (l *lease) set(m posterkit.Mounter) {
	l.mu.Lock()
	l.m = m
	l.mu.Unlock()
}

func (l *lease) Mount(ctx context.Context, markup string, size posterkit.Size) (posterkit.Surface, error) {
	l.mu.Lock()
	m := l.m
	l.mu.Unlock()
	if m == nil {
		return nil, ErrNoRenderer
	}
	return m.Mount(ctx, markup, size)
}

// Compile-time interface checks
var (
	_ Pool              = rendererPool{}
	_ posterkit.Mounter = (*lease)(nil)
)
