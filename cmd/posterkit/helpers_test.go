package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/server"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake renderer and environment
// ---------------------------------------------------------------------------

// fakeRenderer rasterizes a tiny PNG and fails markup containing "fail".
type fakeRenderer struct {
	mu     sync.Mutex
	mounts int
	closed int
}

func (r *fakeRenderer) Mount(_ context.Context, markup string, _ posterkit.Size) (posterkit.Surface, error) {
	r.mu.Lock()
	r.mounts++
	r.mu.Unlock()
	return &fakeSurface{fail: strings.Contains(markup, "fail")}, nil
}

func (r *fakeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *fakeRenderer) closeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type fakeSurface struct{ fail bool }

func (s *fakeSurface) Rasterize(context.Context, posterkit.RasterOptions) ([]byte, error) {
	if s.fail {
		return nil, errors.New("raster exploded")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *fakeSurface) Close() error { return nil }

// fakePool hands out the same renderer.
type fakePool struct{ r *fakeRenderer }

func (p *fakePool) Acquire(context.Context) (posterkit.Mounter, error) { return p.r, nil }
func (p *fakePool) Release(posterkit.Mounter) {}
func (p *fakePool) Close() error { return nil }

// testEnv returns an environment with captured output and a fake renderer.
type testEnv struct {
	*Environment
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	renderer *fakeRenderer
}

func newTestEnv(stdin string) *testEnv {
	var stdout, stderr bytes.Buffer
	r := &fakeRenderer{}
	return &testEnv{
		Environment: &Environment{
			Now:    time.Now,
			Stdin:  strings.NewReader(stdin),
			Stdout: &stdout,
			Stderr: &stderr,
			NewRenderer: func(...posterkit.RendererOption) Renderer {
				return r
			},
			NewPool: func(int, ...posterkit.RendererOption) (server.Pool, io.Closer) {
				p := &fakePool{r: r}
				return p, p
			},
		},
		stdout:   &stdout,
		stderr:   &stderr,
		renderer: r,
	}
}

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// posterMarkup is a tagged template with one named element.
const posterMarkup = `<style>.poster-container{width:400px;height:600px}.name{left:20px;top:30px}</style>` +
	`<div class="poster-container"><div class="name">Hello {{name}}</div></div>`
