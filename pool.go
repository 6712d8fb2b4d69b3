package posterkit

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing.
const (
	MinPoolSize = 1

	// MaxPoolSize caps automatic sizing; each renderer owns a Chrome
	// process of roughly 200MB.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// RendererPool lends RodRenderers to concurrent batches, one renderer per
// running batch. Renderers are built on demand up to the pool size and
// reused after Release.
type RendererPool struct {
	opts  []RendererOption
	slots chan struct{} // one token per lent renderer
	done  chan struct{}
	once  sync.Once

	mu   sync.Mutex
	idle []*RodRenderer
	all  []*RodRenderer
}

// NewRendererPool returns a pool lending at most n renderers (minimum 1).
func NewRendererPool(n int, opts ...RendererOption) *RendererPool {
	n = max(n, MinPoolSize)
	return &RendererPool{
		opts:  opts,
		slots: make(chan struct{}, n),
		done:  make(chan struct{}),
	}
}

// Acquire lends a renderer, waiting while all of them are out. It fails with
// ctx's error or ErrPoolClosed.
func (p *RendererPool) Acquire(ctx context.Context) (*RodRenderer, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed() {
		<-p.slots
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		r := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return r, nil
	}
	r := NewRodRenderer(p.opts...)
	p.all = append(p.all, r)
	return r, nil
}

// Release returns r to the pool. A renderer released after Close is closed
// instead, so a batch finishing during shutdown does not leak its browser.
func (p *RendererPool) Release(r *RodRenderer) {
	p.mu.Lock()
	if p.isClosed() {
		p.mu.Unlock()
		_ = r.Close()
		return
	}
	p.idle = append(p.idle, r)
	p.mu.Unlock()
	<-p.slots
}

// Close shuts down every renderer the pool created and fails pending and
// future Acquire calls. It is safe to call more than once.
func (p *RendererPool) Close() error {
	var renderers []*RodRenderer
	p.once.Do(func() {
		close(p.done)
		p.mu.Lock()
		renderers, p.all, p.idle = p.all, nil, nil
		p.mu.Unlock()
	})

	var errs []error
	for _, r := range renderers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *RendererPool) isClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Size returns how many renderers the pool lends at most.
func (p *RendererPool) Size() int {
	return cap(p.slots)
}

// ResolvePoolSize returns workers when positive, else half of GOMAXPROCS
// clamped to [MinPoolSize, MaxPoolSize]. GOMAXPROCS is container-aware once
// automaxprocs has run.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}
	return min(max(runtime.GOMAXPROCS(0)/cpuDivisor, MinPoolSize), MaxPoolSize)
}
