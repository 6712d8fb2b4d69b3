package posterkit

import (
	"fmt"
	"math"
	"strings"

	"github.com/alnah/go-posterkit/internal/markup"
)

// Parse recovers the canvas and positioned elements from poster markup.
// A chat-style response is accepted: the first fenced html block is used.
// Parse never panics; on unreadable input it returns no elements and the
// default canvas for posterType.
func Parse(raw string, posterType PosterType) (result *ParseResult) {
	fallback := posterType.DefaultCanvas()

	defer func() {
		if r := recover(); r != nil {
			result = newParseResult(nil, fallback, string(markup.DialectGeneric))
		}
	}()

	if strings.TrimSpace(raw) == "" {
		return newParseResult(nil, fallback, string(markup.DialectGeneric))
	}

	doc := markup.Parse(markup.ExtractMarkup(raw), toMarkupCanvas(fallback))

	elements := make([]Element, 0, len(doc.Elements))
	for _, el := range doc.Elements {
		elements = append(elements, toElement(el))
	}
	return newParseResult(elements, fromMarkupCanvas(doc.Canvas, fallback), string(doc.Dialect))
}

func newParseResult(elements []Element, canvas Canvas, dialect string) *ParseResult {
	if elements == nil {
		elements = []Element{}
	}
	meta := Metadata{
		TotalElements:       len(elements),
		EstimatedComplexity: ComplexityFor(len(elements)),
		Dialect:             dialect,
	}
	for _, el := range elements {
		switch el.Type {
		case ElementText:
			meta.HasText = true
		case ElementImage:
			meta.HasImages = true
		}
	}
	return &ParseResult{Elements: elements, Canvas: canvas, Metadata: meta}
}

// toElement converts the internal markup element to the public type.
func toElement(el markup.Element) Element {
	out := Element{
		ID:      el.ID,
		Type:    ElementType(el.Kind),
		X:       el.X,
		Y:       el.Y,
		Width:   el.Width,
		Height:  el.Height,
		Opacity: el.Opacity,
		Content: el.Content,
	}
	if el.Kind == markup.KindText {
		out.FontSize = el.FontSize
		out.FontFamily = el.FontFamily
		out.Color = el.Color
		out.FontWeight = el.FontWeight
	}
	return out
}

func toMarkupCanvas(c Canvas) markup.Canvas {
	return markup.Canvas{
		Width:           float64(c.Width),
		Height:          float64(c.Height),
		BackgroundColor: c.BackgroundColor,
		BackgroundImage: c.BackgroundImage,
	}
}

// fromMarkupCanvas rounds recovered dimensions to whole pixels. A dimension
// that rounds to zero keeps the fallback.
func fromMarkupCanvas(c markup.Canvas, fallback Canvas) Canvas {
	out := Canvas{
		Width:           int(math.Round(c.Width)),
		Height:          int(math.Round(c.Height)),
		BackgroundColor: c.BackgroundColor,
		BackgroundImage: c.BackgroundImage,
	}
	if out.Width <= 0 {
		out.Width = fallback.Width
	}
	if out.Height <= 0 {
		out.Height = fallback.Height
	}
	if out.BackgroundColor == "" {
		out.BackgroundColor = fallback.BackgroundColor
	}
	return out
}

// Validate checks elements for structural defects. It never fails: an
// empty slice is valid. Non-positive sizes, missing identity and empty
// content are errors; negative positions are warnings.
func Validate(elements []Element) Validation {
	v := Validation{Errors: []string{}, Warnings: []string{}}

	for i, el := range elements {
		label := fmt.Sprintf("element %d", i)
		if el.ID != "" {
			label = fmt.Sprintf("element %d (%s)", i, el.ID)
		}

		if el.ID == "" {
			v.Errors = append(v.Errors, label+": missing id")
		}
		switch el.Type {
		case "":
			v.Errors = append(v.Errors, label+": missing type")
		case ElementText:
			if strings.TrimSpace(el.Content) == "" {
				v.Errors = append(v.Errors, label+": text content is empty")
			}
		case ElementImage:
			if strings.TrimSpace(el.Content) == "" {
				v.Errors = append(v.Errors, label+": image source is empty")
			}
		default:
			v.Errors = append(v.Errors, fmt.Sprintf("%s: unknown type %q", label, el.Type))
		}

		if el.Width <= 0 {
			v.Errors = append(v.Errors, fmt.Sprintf("%s: width must be positive, got %g", label, el.Width))
		}
		if el.Height <= 0 {
			v.Errors = append(v.Errors, fmt.Sprintf("%s: height must be positive, got %g", label, el.Height))
		}
		if el.X < 0 {
			v.Warnings = append(v.Warnings, fmt.Sprintf("%s: x is negative (%g)", label, el.X))
		}
		if el.Y < 0 {
			v.Warnings = append(v.Warnings, fmt.Sprintf("%s: y is negative (%g)", label, el.Y))
		}
	}

	v.Valid = len(v.Errors) == 0
	return v
}
