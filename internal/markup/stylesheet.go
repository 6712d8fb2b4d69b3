package markup

import (
	"regexp"
	"strings"
)

var (
	commentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	rulePattern    = regexp.MustCompile(`([^{}]+)\{([^{}]*)\}`)
)

// Declarations maps lowercased property names to trimmed values.
type Declarations map[string]string

// Rule is one "selector { ... }" block.
type Rule struct {
	Selector     string
	Declarations Declarations
}

// Stylesheet holds rules in source order. Later rules win on merge.
type Stylesheet struct {
	Rules []Rule
	Raw   string
}

// ParseStylesheet scans css for selector blocks.
// Grouped selectors ("a, b { }") produce one rule per selector.
// At-rule wrappers are not understood; their inner blocks are still picked up.
func ParseStylesheet(css string) Stylesheet {
	sheet := Stylesheet{Raw: css}
	clean := commentPattern.ReplaceAllString(css, "")

	for _, m := range rulePattern.FindAllStringSubmatch(clean, -1) {
		decls := ParseDeclarations(m[2])
		if len(decls) == 0 {
			continue
		}
		for _, sel := range strings.Split(m[1], ",") {
			sel = strings.TrimSpace(sel)
			if sel == "" || strings.HasPrefix(sel, "@") {
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{Selector: sel, Declarations: decls})
		}
	}
	return sheet
}

// ParseDeclarations splits a declaration block ("a: 1; b: 2") into a map.
// Semicolons inside parentheses or quotes do not split, so data URIs in
// url(...) survive. Entries without a colon are dropped.
func ParseDeclarations(block string) Declarations {
	decls := make(Declarations)
	for _, part := range splitDeclarations(block) {
		idx := strings.Index(part, ":")
		if idx <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(part[:idx]))
		val := strings.TrimSpace(part[idx+1:])
		val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))
		if key == "" || val == "" {
			continue
		}
		decls[key] = val
	}
	return decls
}

func splitDeclarations(block string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range block {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			parts = append(parts, block[start:i])
			start = i + 1
		}
	}
	if start < len(block) {
		parts = append(parts, block[start:])
	}
	return parts
}

// ForClasses merges every rule that targets one of the given class names.
// A rule targets a class when its last compound selector ends in ".name"
// (".title", "div.title", ".poster-container .title").
func (s Stylesheet) ForClasses(classes []string) Declarations {
	merged := make(Declarations)
	if len(classes) == 0 {
		return merged
	}
	for _, rule := range s.Rules {
		if !targetsAny(rule.Selector, classes) {
			continue
		}
		for k, v := range rule.Declarations {
			merged[k] = v
		}
	}
	return merged
}

func targetsAny(selector string, classes []string) bool {
	fields := strings.Fields(selector)
	if len(fields) == 0 {
		return false
	}
	last := fields[len(fields)-1]
	// Drop pseudo-classes: ".title:hover" never applies to a static render.
	if strings.Contains(last, ":") {
		return false
	}
	for _, cls := range classes {
		if strings.HasSuffix(last, "."+cls) {
			return true
		}
	}
	return false
}

// Merge returns a copy of d overlaid with other.
func (d Declarations) Merge(other Declarations) Declarations {
	out := make(Declarations, len(d)+len(other))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Px reads a pixel length. Unitless numbers count as pixels.
func (d Declarations) Px(key string) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	return parsePx(v)
}
