package markup

import (
	"regexp"
	"strconv"

	"golang.org/x/net/html"
)

// minCanvasSide is the smallest explicit box, on both axes, taken as the canvas.
const minCanvasSide = 200

var sizePattern = regexp.MustCompile(`(?is)width\s*:\s*(\d+(?:\.\d+)?)px[^{}]*?height\s*:\s*(\d+(?:\.\d+)?)px`)

// detectCanvas looks for the poster surface in generic markup: first an
// element with explicit pixel width and height of at least minCanvasSide,
// then a width/height pair anywhere in the stylesheet text.
func detectCanvas(start *html.Node, sheet Stylesheet, fallback Canvas) Canvas {
	if decls, ok := findCanvasCandidate(start, sheet); ok {
		return containerCanvas(decls, fallback)
	}

	canvas := fallback
	if m := sizePattern.FindStringSubmatch(sheet.Raw); m != nil {
		w, errW := strconv.ParseFloat(m[1], 64)
		h, errH := strconv.ParseFloat(m[2], 64)
		if errW == nil && errH == nil && w > 0 && h > 0 {
			canvas.Width, canvas.Height = w, h
		}
	}
	return canvas
}

func findCanvasCandidate(n *html.Node, sheet Stylesheet) (Declarations, bool) {
	if n.Type == html.ElementNode && !skipped[n.DataAtom] {
		decls := declarationsOf(n, sheet)
		w, okW := decls.Px("width")
		h, okH := decls.Px("height")
		if okW && okH && w >= minCanvasSide && h >= minCanvasSide {
			return decls, true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if decls, ok := findCanvasCandidate(c, sheet); ok {
			return decls, true
		}
	}
	return nil, false
}
