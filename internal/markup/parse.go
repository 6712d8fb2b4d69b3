package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TaggedContainerClass marks the flat container of the tagged dialect.
const TaggedContainerClass = "poster-container"

// Parse reads raw markup into a Document. fallback supplies the canvas when
// the markup carries no usable size or background.
func Parse(raw string, fallback Canvas) Document {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return Document{Dialect: DialectGeneric, Canvas: fallback}
	}

	sheet := ParseStylesheet(collectStyles(root))

	if container := findByClass(root, TaggedContainerClass); container != nil {
		return parseTagged(container, sheet, fallback)
	}
	return parseGeneric(root, sheet, fallback)
}

// collectStyles concatenates the text of every <style> element.
func collectStyles(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
					b.WriteByte('\n')
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String()
}

// findByClass returns the first element, in document order, carrying class.
func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func classList(n *html.Node) []string {
	return strings.Fields(attr(n, "class"))
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classList(n) {
		if c == class {
			return true
		}
	}
	return false
}

// declarationsOf merges stylesheet rules for the node's classes with its
// inline style. Inline declarations win.
func declarationsOf(n *html.Node, sheet Stylesheet) Declarations {
	return sheet.ForClasses(classList(n)).Merge(ParseDeclarations(attr(n, "style")))
}

// textContent returns all descendant text, like the DOM property.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// directText returns the node's own text children with whitespace collapsed.
// Text held by descendant elements is not included.
func directText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
