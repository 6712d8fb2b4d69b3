package posterkit

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Batch defaults.
const (
	DefaultSettleDelay     = 300 * time.Millisecond
	DefaultTaskDelay       = 100 * time.Millisecond
	DefaultRasterTimeout   = 30 * time.Second
	DefaultDownloadStagger = 200 * time.Millisecond
	DefaultScale           = 2.0
	DefaultSuffix          = "poster"
	MaxScale               = 4.0
)

// BatchOption configures a Batch.
type BatchOption func(*batchConfig)

// batchConfig holds internal configuration for Batch.
type batchConfig struct {
	settleDelay     time.Duration
	taskDelay       time.Duration
	rasterTimeout   time.Duration
	downloadStagger time.Duration
	scale           float64
	suffix          string
	encode          encodeOptions
	logger          *logrus.Logger
}

func defaultBatchConfig() batchConfig {
	return batchConfig{
		settleDelay:     DefaultSettleDelay,
		taskDelay:       DefaultTaskDelay,
		rasterTimeout:   DefaultRasterTimeout,
		downloadStagger: DefaultDownloadStagger,
		scale:           DefaultScale,
		suffix:          DefaultSuffix,
		encode:          encodeOptions{format: FormatPNG, quality: DefaultWebPQuality},
		logger:          discardLogger(),
	}
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// WithSettleDelay sets the wait between mounting and rasterizing.
// Panics if d < 0.
func WithSettleDelay(d time.Duration) BatchOption {
	if d < 0 {
		panic("posterkit: WithSettleDelay duration must not be negative")
	}
	return func(c *batchConfig) {
		c.settleDelay = d
	}
}

// WithTaskDelay sets the pause between consecutive tasks.
// Panics if d < 0.
func WithTaskDelay(d time.Duration) BatchOption {
	if d < 0 {
		panic("posterkit: WithTaskDelay duration must not be negative")
	}
	return func(c *batchConfig) {
		c.taskDelay = d
	}
}

// WithRasterTimeout bounds mounting plus rasterizing of one task.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRasterTimeout(d time.Duration) BatchOption {
	if d <= 0 {
		panic("posterkit: WithRasterTimeout duration must be positive")
	}
	return func(c *batchConfig) {
		c.rasterTimeout = d
	}
}

// WithDownloadStagger sets the delay between deliveries in DownloadAll.
// Panics if d < 0.
func WithDownloadStagger(d time.Duration) BatchOption {
	if d < 0 {
		panic("posterkit: WithDownloadStagger duration must not be negative")
	}
	return func(c *batchConfig) {
		c.downloadStagger = d
	}
}

// WithScale sets the device scale factor. Panics outside (0, MaxScale].
func WithScale(scale float64) BatchOption {
	if scale <= 0 || scale > MaxScale {
		panic("posterkit: WithScale must be in (0, 4]")
	}
	return func(c *batchConfig) {
		c.scale = scale
	}
}

// WithSuffix sets the last segment of artifact filenames.
func WithSuffix(suffix string) BatchOption {
	return func(c *batchConfig) {
		if suffix != "" {
			c.suffix = suffix
		}
	}
}

// WithFormat sets the artifact encoding. quality applies to WebP and is
// clamped to [MinQuality, MaxQuality]; zero keeps DefaultWebPQuality.
func WithFormat(format Format, quality int) BatchOption {
	return func(c *batchConfig) {
		if format != "" {
			c.encode.format = format
		}
		if quality != 0 {
			c.encode.quality = min(max(quality, MinQuality), MaxQuality)
		}
	}
}

// WithThumbnail makes every artifact carry a PNG thumbnail of the given width.
// Zero disables thumbnails.
func WithThumbnail(width int) BatchOption {
	return func(c *batchConfig) {
		c.encode.thumbnailWidth = max(width, 0)
	}
}

// WithLogger sets the logger for batch transitions. Nil keeps the
// discarding default.
func WithLogger(l *logrus.Logger) BatchOption {
	return func(c *batchConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
