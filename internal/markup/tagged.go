package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseTagged reads the flat tagged dialect. Only direct children of the
// container that carry a class are considered; nothing nested is visited.
func parseTagged(container *html.Node, sheet Stylesheet, fallback Canvas) Document {
	doc := Document{
		Dialect: DialectTagged,
		Canvas:  containerCanvas(declarationsOf(container, sheet), fallback),
	}
	ids := make(idCounter)

	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || len(classList(c)) == 0 {
			continue
		}
		decls := declarationsOf(c, sheet)

		if c.DataAtom == atom.Img {
			if el, ok := taggedImage(c, decls, ids); ok {
				doc.Elements = append(doc.Elements, el)
			}
			continue
		}

		content := strings.TrimSpace(textContent(c))
		if content == "" {
			continue
		}
		doc.Elements = append(doc.Elements, taggedText(content, decls, doc.Canvas, ids))
	}
	return doc
}

// containerCanvas derives the canvas from the container's declarations,
// keeping fallback values for anything missing or non-positive.
func containerCanvas(decls Declarations, fallback Canvas) Canvas {
	canvas := fallback
	if w, ok := decls.Px("width"); ok && w > 0 {
		canvas.Width = w
	}
	if h, ok := decls.Px("height"); ok && h > 0 {
		canvas.Height = h
	}
	if bg := backgroundColorOf(decls); bg != "" {
		canvas.BackgroundColor = bg
	}
	if img := backgroundImageOf(decls); img != "" {
		canvas.BackgroundImage = img
	}
	return canvas
}

func taggedText(content string, decls Declarations, canvas Canvas, ids idCounter) Element {
	el := Element{
		ID:         ids.next("text"),
		Kind:       KindText,
		Content:    content,
		Opacity:    opacityOf(decls),
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
		Color:      DefaultColor,
		FontWeight: FontWeightNormal,
	}
	if fs, ok := fontSizeOf(decls); ok {
		el.FontSize = fs
	}
	if ff := decls["font-family"]; ff != "" {
		el.FontFamily = ff
	}
	if col := decls["color"]; col != "" {
		el.Color = col
	}
	if fw, ok := decls["font-weight"]; ok {
		el.FontWeight = normalizeFontWeight(fw)
	}

	el.X, _ = decls.Px("left")
	el.Y, _ = decls.Px("top")

	estW, estH := estimateTextBox(content, el.FontSize, canvas.Width)
	el.Width, el.Height = estW, estH
	if w, ok := decls.Px("width"); ok && w > 0 {
		el.Width = w
	}
	if h, ok := decls.Px("height"); ok && h > 0 {
		el.Height = h
	}
	return el
}

func taggedImage(n *html.Node, decls Declarations, ids idCounter) (Element, bool) {
	src := strings.TrimSpace(attr(n, "src"))
	if src == "" {
		return Element{}, false
	}
	el := Element{
		ID:      ids.next("image"),
		Kind:    KindImage,
		Content: src,
		Opacity: opacityOf(decls),
	}
	el.X, _ = decls.Px("left")
	el.Y, _ = decls.Px("top")
	el.Width, el.Height = imageSize(n, decls)
	return el, true
}

// imageSize reads declared pixel dimensions, then the width/height
// attributes. Missing dimensions stay 0.
func imageSize(n *html.Node, decls Declarations) (width, height float64) {
	if w, ok := decls.Px("width"); ok {
		width = w
	} else if w, ok := parsePx(attr(n, "width")); ok {
		width = w
	}
	if h, ok := decls.Px("height"); ok {
		height = h
	} else if h, ok := parsePx(attr(n, "height")); ok {
		height = h
	}
	return width, height
}
