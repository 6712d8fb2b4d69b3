package posterkit

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Format is the encoding of an artifact.
type Format string

// Artifact formats.
const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Default encoding settings.
const (
	DefaultWebPQuality = 90
	MinQuality         = 1
	MaxQuality         = 100
)

// ParseFormat reads a format name. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatWebP:
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: %q (must be png or webp)", ErrInvalidFormat, s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatWebP {
		return "webp"
	}
	return "png"
}

// MIMEType returns the media type of the format.
func (f Format) MIMEType() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// encodeOptions controls artifact encoding.
type encodeOptions struct {
	format         Format
	quality        int
	thumbnailWidth int
}

// encodeArtifact decodes raw rasterizer output and re-encodes it in the
// requested format. PNG input is kept as-is when PNG is requested. The
// decoded image never outlives the call; a batch keeps only encoded bytes.
func encodeArtifact(raw []byte, opts encodeOptions) (*Artifact, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding raster: %v", ErrEncode, err)
	}

	data := raw
	if opts.format == FormatWebP {
		var buf bytes.Buffer
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(opts.quality)}); err != nil {
			return nil, fmt.Errorf("%w: webp: %v", ErrEncode, err)
		}
		data = buf.Bytes()
	}

	bounds := img.Bounds()
	art := &Artifact{
		Data:   data,
		URL:    "data:" + opts.format.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(data),
		Format: opts.format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	if opts.thumbnailWidth > 0 && opts.thumbnailWidth < bounds.Dx() {
		thumb := imaging.Resize(img, opts.thumbnailWidth, 0, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
			return nil, fmt.Errorf("%w: thumbnail: %v", ErrEncode, err)
		}
		art.Thumbnail = buf.Bytes()
	}
	return art, nil
}
