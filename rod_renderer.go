package posterkit

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-posterkit/internal/fileutil"
	"github.com/alnah/go-posterkit/internal/process"
)

// Compile-time interface checks
var (
	_ Mounter = (*RodRenderer)(nil)
	_ Surface = (*rodSurface)(nil)
)

// DefaultLoadTimeout bounds page loading when the context has no deadline.
const DefaultLoadTimeout = 30 * time.Second

// RendererOption configures a RodRenderer.
type RendererOption func(*RodRenderer)

// WithLoadTimeout sets the page load timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithLoadTimeout(d time.Duration) RendererOption {
	if d <= 0 {
		panic("posterkit: WithLoadTimeout duration must be positive")
	}
	return func(r *RodRenderer) {
		r.timeout = d
	}
}

// RodRenderer mounts markup in headless Chrome pages via go-rod.
// The browser is launched on first Mount. Rod downloads Chromium if none
// is found; ROD_BROWSER_BIN selects a pre-installed binary.
type RodRenderer struct {
	mu      sync.Mutex
	browser *rod.Browser
	launch  *launcher.Launcher
	timeout time.Duration
}

// NewRodRenderer creates a renderer. No browser is started until Mount.
func NewRodRenderer(opts ...RendererOption) *RodRenderer {
	r := &RodRenderer{timeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ensureBrowser lazily launches and connects to the browser.
func (r *RodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = browser
	r.launch = l
	return browser, nil
}

// Mount writes the markup to a temporary file and opens it in a new page
// sized to the canvas. The page and the file are released by Surface.Close,
// or immediately if Mount fails.
func (r *RodRenderer) Mount(ctx context.Context, markup string, size Size) (Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	path, cleanup, err := fileutil.WriteTempFile(mountDocument(markup, size), "html")
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	surface := &rodSurface{page: page, cleanup: cleanup, size: size}

	if err := page.Context(ctx).SetViewport(viewport(size, 1)); err != nil {
		_ = surface.Close()
		return nil, fmt.Errorf("%w: viewport: %v", ErrPageLoad, err)
	}

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			_ = surface.Close()
			return nil, context.DeadlineExceeded
		}
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		_ = surface.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	return surface, nil
}

// Close releases browser resources, killing the Chrome process group.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil

	if r.launch != nil {
		if pid := r.launch.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		r.launch.Cleanup()
		r.launch = nil
	}
	return err
}

// rodSurface is one mounted page.
type rodSurface struct {
	page    *rod.Page
	cleanup func()
	size    Size
	once    sync.Once
}

// Rasterize captures the canvas area as PNG at the requested scale.
func (s *rodSurface) Rasterize(ctx context.Context, opts RasterOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = s.size.Width, s.size.Height
	}

	page := s.page.Context(ctx)
	if err := page.SetViewport(viewport(Size{Width: width, Height: height}, scale)); err != nil {
		return nil, fmt.Errorf("%w: viewport: %v", ErrRasterize, err)
	}

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      0,
			Width:  float64(width),
			Height: float64(height),
			Scale:  1,
		},
		FromSurface: true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	return data, nil
}

// Close closes the page and removes the temporary file. Safe to call more
// than once.
func (s *rodSurface) Close() error {
	var err error
	s.once.Do(func() {
		err = s.page.Close()
		s.cleanup()
	})
	return err
}

func viewport(size Size, scale float64) *proto.EmulationSetDeviceMetricsOverride {
	return &proto.EmulationSetDeviceMetricsOverride{
		Width:             size.Width,
		Height:            size.Height,
		DeviceScaleFactor: scale,
	}
}

// mountDocument pins the page box to the canvas so a screenshot covers
// exactly the poster.
func mountDocument(markup string, size Size) string {
	css := fmt.Sprintf(
		"html,body{margin:0;padding:0;width:%dpx;height:%dpx;overflow:hidden;}",
		size.Width, size.Height,
	)
	return injectStyle(markup, css)
}

// injectStyle inserts a <style> block before </head>, else after <body>,
// else at the start of the markup.
func injectStyle(markup, css string) string {
	block := "<style>" + strings.ReplaceAll(css, "</", `<\/`) + "</style>"
	lower := strings.ToLower(markup)

	if idx := strings.Index(lower, "</head>"); idx != -1 {
		return markup[:idx] + block + markup[idx:]
	}
	if idx := strings.Index(lower, "<body"); idx != -1 {
		if closeIdx := strings.Index(markup[idx:], ">"); closeIdx != -1 {
			pos := idx + closeIdx + 1
			return markup[:pos] + block + markup[pos:]
		}
	}
	return block + markup
}
