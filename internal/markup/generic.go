package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute visible content.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Head:     true,
	atom.Title:    true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Noscript: true,
	atom.Template: true,
}

// typography is inherited from ancestors in the generic dialect.
type typography struct {
	fontSize   float64
	fontFamily string
	color      string
	fontWeight string
}

func defaultTypography() typography {
	return typography{
		fontSize:   DefaultFontSize,
		fontFamily: DefaultFontFamily,
		color:      DefaultColor,
		fontWeight: FontWeightNormal,
	}
}

func (t typography) apply(d Declarations) typography {
	if fs, ok := fontSizeOf(d); ok {
		t.fontSize = fs
	}
	if ff := d["font-family"]; ff != "" {
		t.fontFamily = ff
	}
	if c := d["color"]; c != "" {
		t.color = c
	}
	if fw, ok := d["font-weight"]; ok {
		t.fontWeight = normalizeFontWeight(fw)
	}
	return t
}

type genericWalker struct {
	sheet    Stylesheet
	canvas   Canvas
	ids      idCounter
	elements []Element
}

// parseGeneric walks arbitrary nested markup from <body> in pre-order.
func parseGeneric(root *html.Node, sheet Stylesheet, fallback Canvas) Document {
	start := findElement(root, atom.Body)
	if start == nil {
		start = root
	}
	w := &genericWalker{
		sheet:  sheet,
		canvas: detectCanvas(start, sheet, fallback),
		ids:    make(idCounter),
	}
	w.walk(start, 0, 0, defaultTypography())
	return Document{Dialect: DialectGeneric, Canvas: w.canvas, Elements: w.elements}
}

func (w *genericWalker) walk(n *html.Node, offX, offY float64, inherited typography) {
	if n.Type != html.ElementNode {
		return
	}
	if skipped[n.DataAtom] {
		return
	}

	decls := declarationsOf(n, w.sheet)
	left, _ := decls.Px("left")
	top, _ := decls.Px("top")
	marginLeft, marginTop := marginOffset(decls)
	x := offX + left + marginLeft
	y := offY + top + marginTop
	typo := inherited.apply(decls)
	opacity := opacityOf(decls)

	if text := directText(n); text != "" {
		w.emitText(text, x, y, opacity, typo)
	}
	if n.DataAtom == atom.Img {
		w.emitImage(n, decls, x, y, opacity)
	}
	if bg := backgroundImageOf(decls); bg != "" {
		w.emitBackground(bg, decls, x, y, opacity)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, x, y, typo)
	}
}

func (w *genericWalker) emitText(text string, x, y, opacity float64, t typography) {
	width, height := estimateTextBox(text, t.fontSize, w.canvas.Width)
	w.elements = append(w.elements, Element{
		ID:         w.ids.next("text"),
		Kind:       KindText,
		X:          clamp(x, width, w.canvas.Width),
		Y:          clamp(y, height, w.canvas.Height),
		Width:      width,
		Height:     height,
		Opacity:    opacity,
		Content:    text,
		FontSize:   t.fontSize,
		FontFamily: t.fontFamily,
		Color:      t.color,
		FontWeight: t.fontWeight,
	})
}

func (w *genericWalker) emitImage(n *html.Node, decls Declarations, x, y, opacity float64) {
	src := strings.TrimSpace(attr(n, "src"))
	if src == "" {
		return
	}
	width, height := imageSize(n, decls)
	w.elements = append(w.elements, Element{
		ID:      w.ids.next("image"),
		Kind:    KindImage,
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		Opacity: opacity,
		Content: src,
	})
}

// emitBackground normalizes a background image into an image element.
// Without declared dimensions it covers the canvas.
func (w *genericWalker) emitBackground(src string, decls Declarations, x, y, opacity float64) {
	width, height := w.canvas.Width, w.canvas.Height
	if v, ok := decls.Px("width"); ok && v > 0 {
		width = v
	}
	if v, ok := decls.Px("height"); ok && v > 0 {
		height = v
	}
	w.elements = append(w.elements, Element{
		ID:      w.ids.next("bg"),
		Kind:    KindImage,
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		Opacity: opacity,
		Content: src,
	})
}
