package markup

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Typography fallbacks applied when a declaration is absent or unreadable.
const (
	DefaultFontSize   = 16.0
	DefaultFontFamily = "Arial, sans-serif"
	DefaultColor      = "#000000"
	DefaultBackground = "#ffffff"
	DefaultOpacity    = 1.0

	FontWeightBold   = "bold"
	FontWeightNormal = "normal"

	// boldThreshold is the numeric weight above which text counts as bold.
	boldThreshold = 500
)

var urlPattern = regexp.MustCompile(`url\(\s*(?:"([^"]*)"|'([^']*)'|([^)]*?))\s*\)`)

// parsePx reads "12px", "12.5px" or "12". Percentages, em and keywords fail.
func parsePx(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// fontSizeOf reads font-size in px, em or rem (em and rem against 16px).
func fontSizeOf(d Declarations) (float64, bool) {
	v, ok := d["font-size"]
	if !ok {
		return 0, false
	}
	v = strings.TrimSpace(strings.ToLower(v))
	for _, unit := range []string{"rem", "em"} {
		if strings.HasSuffix(v, unit) {
			f, err := strconv.ParseFloat(strings.TrimSuffix(v, unit), 64)
			if err != nil || f <= 0 {
				return 0, false
			}
			return f * DefaultFontSize, true
		}
	}
	f, ok := parsePx(v)
	if !ok || f <= 0 {
		return 0, false
	}
	return f, true
}

// normalizeFontWeight maps a declared weight to "bold" or "normal".
// Only the literal "bold" or a number above 500 is bold.
func normalizeFontWeight(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == FontWeightBold {
		return FontWeightBold
	}
	if n, err := strconv.Atoi(v); err == nil && n > boldThreshold {
		return FontWeightBold
	}
	return FontWeightNormal
}

// opacityOf reads opacity clamped to [0, 1], defaulting to 1.
func opacityOf(d Declarations) float64 {
	v, ok := d["opacity"]
	if !ok {
		return DefaultOpacity
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) {
		return DefaultOpacity
	}
	return math.Max(0, math.Min(1, f))
}

// extractURL returns the target of the first url(...) in v.
func extractURL(v string) string {
	m := urlPattern.FindStringSubmatch(v)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return strings.TrimSpace(g)
		}
	}
	return ""
}

// backgroundImageOf returns the background image URL, or "" for none.
func backgroundImageOf(d Declarations) string {
	if v, ok := d["background-image"]; ok {
		if strings.EqualFold(strings.TrimSpace(v), "none") {
			return ""
		}
		return extractURL(v)
	}
	return extractURL(d["background"])
}

// backgroundColorOf returns background-color, or the non-url part of the
// background shorthand.
func backgroundColorOf(d Declarations) string {
	if v := d["background-color"]; v != "" {
		return v
	}
	bg := d["background"]
	if bg == "" {
		return ""
	}
	if !urlPattern.MatchString(bg) {
		return bg
	}
	rest := strings.TrimSpace(urlPattern.ReplaceAllString(bg, ""))
	for _, tok := range strings.Fields(rest) {
		if strings.HasPrefix(tok, "#") || strings.HasPrefix(tok, "rgb") || strings.HasPrefix(tok, "hsl") {
			return tok
		}
	}
	return ""
}

// marginOffset returns the left and top margin, reading the longhand
// properties first and falling back to the shorthand.
func marginOffset(d Declarations) (left, top float64) {
	if parts := strings.Fields(d["margin"]); len(parts) > 0 {
		top, _ = parsePx(parts[0])
		switch len(parts) {
		case 1:
			left = top
		case 2, 3:
			left, _ = parsePx(parts[1])
		default:
			left, _ = parsePx(parts[3])
		}
	}
	if v, ok := d.Px("margin-left"); ok {
		left = v
	}
	if v, ok := d.Px("margin-top"); ok {
		top = v
	}
	return left, top
}

// estimateTextBox sizes a text run that declares no box of its own.
// Width is capped at 80% of the canvas; height is one and a half lines.
func estimateTextBox(text string, fontSize, canvasWidth float64) (width, height float64) {
	length := float64(len([]rune(text)))
	width = math.Min(length*fontSize*0.6, canvasWidth*0.8)
	height = fontSize * 1.5
	return width, height
}

// clamp pins v into [0, limit-size], collapsing to 0 when size exceeds limit.
func clamp(v, size, limit float64) float64 {
	upper := limit - size
	if upper < 0 {
		upper = 0
	}
	return math.Max(0, math.Min(v, upper))
}
