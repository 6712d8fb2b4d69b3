package posterkit

import (
	"fmt"
	"strings"
)

// PosterType selects the default canvas when markup carries no size.
type PosterType string

// Poster types.
const (
	PosterGeneral    PosterType = "general"
	PosterInvitation PosterType = "invitation"
	PosterWechat     PosterType = "wechat"
)

// Default canvas dimensions in pixels.
const (
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 1200
	WechatCanvasWidth   = 900
	WechatCanvasHeight  = 383

	DefaultBackgroundColor = "#ffffff"
)

// ParsePosterType reads a poster type name. Empty means general.
func ParsePosterType(s string) (PosterType, error) {
	switch PosterType(strings.ToLower(strings.TrimSpace(s))) {
	case "", PosterGeneral:
		return PosterGeneral, nil
	case PosterInvitation:
		return PosterInvitation, nil
	case PosterWechat:
		return PosterWechat, nil
	default:
		return "", fmt.Errorf("%w: %q (must be general, invitation, or wechat)", ErrInvalidPosterType, s)
	}
}

// DefaultCanvas returns the canvas used when markup gives no size hints.
// Unknown types fall back to the general canvas.
func (p PosterType) DefaultCanvas() Canvas {
	if p == PosterWechat {
		return Canvas{Width: WechatCanvasWidth, Height: WechatCanvasHeight, BackgroundColor: DefaultBackgroundColor}
	}
	return Canvas{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight, BackgroundColor: DefaultBackgroundColor}
}

// Canvas describes the target raster surface.
type Canvas struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"backgroundColor"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
}

// Size returns the canvas dimensions.
func (c Canvas) Size() Size {
	return Size{Width: c.Width, Height: c.Height}
}

// Size is a pixel width and height.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks that both dimensions are positive.
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidCanvasSize, s.Width, s.Height)
	}
	return nil
}

// ElementType discriminates poster elements.
type ElementType string

// Element types. Background images are reported as ElementImage.
const (
	ElementText  ElementType = "text"
	ElementImage ElementType = "image"
)

// Element is one positioned visual unit recovered from markup.
// Text elements fill the typography fields; image elements carry their
// source URL or data URI in Content.
type Element struct {
	ID      string      `json:"id"`
	Type    ElementType `json:"type"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Opacity float64     `json:"opacity"`
	Content string      `json:"content"`

	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Color      string  `json:"color,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
}

// Complexity buckets a parse by element count.
type Complexity string

// Complexity levels.
const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Complexity thresholds (inclusive upper bounds).
const (
	simpleMaxElements = 5
	mediumMaxElements = 10
)

// ComplexityFor derives the complexity bucket from an element count.
func ComplexityFor(total int) Complexity {
	switch {
	case total <= simpleMaxElements:
		return ComplexitySimple
	case total <= mediumMaxElements:
		return ComplexityMedium
	default:
		return ComplexityComplex
	}
}

// Metadata summarizes a parse.
type Metadata struct {
	TotalElements       int        `json:"totalElements"`
	HasImages           bool       `json:"hasImages"`
	HasText             bool       `json:"hasText"`
	EstimatedComplexity Complexity `json:"estimatedComplexity"`
	Dialect             string     `json:"dialect"`
}

// ParseResult is the structured model recovered from one piece of markup.
type ParseResult struct {
	Elements []Element `json:"elements"`
	Canvas   Canvas    `json:"canvas"`
	Metadata Metadata  `json:"metadata"`
}

// Validation is the outcome of Validate. Errors make an element unusable;
// warnings flag suspicious but renderable values.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
