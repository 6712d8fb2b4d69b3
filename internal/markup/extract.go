package markup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var chatParser = goldmark.New().Parser()

// ExtractMarkup returns the first fenced html block of a chat-style
// response. A fence with no language counts when its body looks like
// markup. Input without such a fence is returned unchanged.
func ExtractMarkup(response string) string {
	if !strings.Contains(response, "```") && !strings.Contains(response, "~~~") {
		return response
	}
	src := []byte(response)
	doc := chatParser.Parse(text.NewReader(src))

	var found []byte
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		body := blockBody(block, src)
		if isMarkupFence(string(block.Language(src)), body) {
			found = body
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})

	if found == nil {
		return response
	}
	return string(found)
}

func blockBody(block *ast.FencedCodeBlock, src []byte) []byte {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes()
}

func isMarkupFence(lang string, body []byte) bool {
	switch strings.ToLower(lang) {
	case "html", "htm", "xhtml":
		return true
	case "":
		trimmed := bytes.TrimSpace(body)
		return bytes.HasPrefix(trimmed, []byte("<"))
	default:
		return false
	}
}
