package posterkit

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
)

// Compile-time interface checks for test doubles.
var (
	_ Mounter   = (*mockMounter)(nil)
	_ Surface   = (*mockSurface)(nil)
	_ Deliverer = (*mockDeliverer)(nil)
)

// mockMounter records every mount and tracks how many surfaces are open.
// Errors are keyed by a substring of the mounted markup.
type mockMounter struct {
	mu        sync.Mutex
	open      int
	mounts    []string
	closes    int
	mountErr  map[string]error
	rasterErr map[string]error
	rawOutput map[string][]byte
	// blockRaster makes Rasterize wait for its context.
	blockRaster bool
	lastOpts    RasterOptions
}

func newMockMounter() *mockMounter {
	return &mockMounter{
		mountErr:  make(map[string]error),
		rasterErr: make(map[string]error),
		rawOutput: make(map[string][]byte),
	}
}

func (m *mockMounter) Mount(ctx context.Context, markup string, size Size) (Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mounts = append(m.mounts, markup)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for key, err := range m.mountErr {
		if strings.Contains(markup, key) {
			return nil, err
		}
	}
	m.open++
	return &mockSurface{parent: m, markup: markup, seq: len(m.mounts)}, nil
}

func (m *mockMounter) openCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *mockMounter) mountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mounts)
}

type mockSurface struct {
	parent *mockMounter
	markup string
	seq    int
	closed bool
}

func (s *mockSurface) Rasterize(ctx context.Context, opts RasterOptions) ([]byte, error) {
	m := s.parent
	m.mu.Lock()
	m.lastOpts = opts
	block := m.blockRaster
	var rasterErr error
	for key, err := range m.rasterErr {
		if strings.Contains(s.markup, key) {
			rasterErr = err
		}
	}
	var raw []byte
	for key, out := range m.rawOutput {
		if strings.Contains(s.markup, key) {
			raw = out
		}
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rasterErr != nil {
		return nil, rasterErr
	}
	if raw != nil {
		return raw, nil
	}
	return encodeTestPNG(8, 12, color.RGBA{R: uint8(s.seq * 40), G: 10, B: 10, A: 255}), nil
}

func (s *mockSurface) Close() error {
	m := s.parent
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.closed {
		return errors.New("surface closed twice")
	}
	s.closed = true
	m.open--
	m.closes++
	return nil
}

// mockDeliverer records delivered names.
type mockDeliverer struct {
	mu    sync.Mutex
	names []string
	err   map[string]error
}

func (d *mockDeliverer) Deliver(ctx context.Context, name string, art *Artifact) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.err[name]; err != nil {
		return err
	}
	d.names = append(d.names, name)
	return nil
}

// eventRecorder collects events from Subscribe.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) progressFor(taskID string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, ev := range r.events {
		if ev.Kind == EventTask && ev.TaskID == taskID {
			out = append(out, ev.Progress)
		}
	}
	return out
}

func (r *eventRecorder) overall() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == EventOverall {
			out = append(out, ev)
		}
	}
	return out
}

func encodeTestPNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// fastOptions removes delays so tests run quickly.
func fastOptions(extra ...BatchOption) []BatchOption {
	return append([]BatchOption{
		WithSettleDelay(0),
		WithTaskDelay(0),
		WithDownloadStagger(0),
	}, extra...)
}
