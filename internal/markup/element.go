package markup

import "strconv"

// Kind discriminates recovered elements.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Dialect names the generation style a document was read as.
type Dialect string

const (
	DialectTagged  Dialect = "tagged"
	DialectGeneric Dialect = "generic"
)

// Element is one positioned unit recovered from markup.
// For KindImage, Content holds the image source and the typography fields
// are empty.
type Element struct {
	ID      string
	Kind    Kind
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Opacity float64
	Content string

	FontSize   float64
	FontFamily string
	Color      string
	FontWeight string
}

// Canvas is the raster surface described by the markup.
type Canvas struct {
	Width           float64
	Height          float64
	BackgroundColor string
	BackgroundImage string
}

// Document is the result of reading one piece of markup.
type Document struct {
	Dialect  Dialect
	Canvas   Canvas
	Elements []Element
}

// idCounter hands out "<prefix>-N" identifiers unique within one document.
type idCounter map[string]int

func (c idCounter) next(prefix string) string {
	c[prefix]++
	return prefix + "-" + strconv.Itoa(c[prefix])
}
