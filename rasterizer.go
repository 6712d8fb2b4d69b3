package posterkit

import "context"

// Mounter places markup on an isolated off-screen surface sized to the
// canvas. On error nothing is left mounted.
type Mounter interface {
	Mount(ctx context.Context, markup string, size Size) (Surface, error)
}

// Surface is mounted markup ready to rasterize. Close must be called exactly
// once, whatever the outcome of Rasterize.
type Surface interface {
	Rasterize(ctx context.Context, opts RasterOptions) ([]byte, error)
	Close() error
}

// RasterOptions configures one rasterization. Scale multiplies the output
// resolution; the layout size stays Width x Height.
type RasterOptions struct {
	Width  int
	Height int
	Scale  float64
}
