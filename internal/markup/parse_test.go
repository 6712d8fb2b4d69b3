package markup

// Notes:
// - Expected text widths are computed with the same expression order as
//   estimateTextBox so float comparisons are exact
// - Fallback canvas mirrors the general poster default (800x1200)

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

var testFallback = Canvas{Width: 800, Height: 1200, BackgroundColor: DefaultBackground}

// estimatedWidth evaluates min(L*F*0.6, W*0.8) at runtime.
func estimatedWidth(runes int, fontSize, canvasWidth float64) float64 {
	length := float64(runes)
	return math.Min(length*fontSize*0.6, canvasWidth*0.8)
}

// ---------------------------------------------------------------------------
// Dialect detection
// ---------------------------------------------------------------------------

func TestParse_Dialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Dialect
	}{
		{"tagged container", `<div class="poster-container"><div class="a">x</div></div>`, DialectTagged},
		{"tagged among other classes", `<div class="main poster-container"></div>`, DialectTagged},
		{"generic nested", `<div style="position:relative"><p>hello</p></div>`, DialectGeneric},
		{"similar class is not tagged", `<div class="poster-container-old"></div>`, DialectGeneric},
		{"empty", ``, DialectGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Parse(tt.raw, Canvas{Width: 800, Height: 600}).Dialect; got != tt.want {
				t.Errorf("Parse().Dialect = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tagged dialect
// ---------------------------------------------------------------------------

const taggedInvitation = `<!DOCTYPE html>
<html><head><style>
.poster-container { position: relative; width: 1080px; height: 1920px; background: #fafafa; }
.title { position: absolute; left: 100px; top: 200px; font-size: 48px; font-weight: 700; color: #333; }
.subtitle { position: absolute; left: 100px; top: 300px; font-size: 2em; font-weight: 500; }
.boxed { left: 50px; top: 900px; width: 600px; height: 80px; font-family: "Noto Serif"; opacity: 0.8; }
.empty { left: 0; }
.logo { left: 10px; top: 10px; width: 64px; height: 64px; }
</style></head>
<body><div class="poster-container">
  <div class="title">  Welcome  </div>
  <div class="subtitle">Dear Alice</div>
  <div class="boxed">Join us <b>Friday</b></div>
  <div class="empty">   </div>
  <div>no class is ignored</div>
  <img class="logo" src="logo.png">
</div></body></html>`

func TestParseTagged(t *testing.T) {
	t.Parallel()

	doc := Parse(taggedInvitation, testFallback)

	if doc.Dialect != DialectTagged {
		t.Fatalf("Dialect = %q, want %q", doc.Dialect, DialectTagged)
	}
	wantCanvas := Canvas{Width: 1080, Height: 1920, BackgroundColor: "#fafafa"}
	if doc.Canvas != wantCanvas {
		t.Errorf("Canvas = %+v, want %+v", doc.Canvas, wantCanvas)
	}
	if len(doc.Elements) != 4 {
		t.Fatalf("len(Elements) = %d, want 4: %+v", len(doc.Elements), doc.Elements)
	}

	title := doc.Elements[0]
	if title.ID != "text-1" || title.Kind != KindText || title.Content != "Welcome" {
		t.Errorf("title = %+v", title)
	}
	if title.X != 100 || title.Y != 200 {
		t.Errorf("title position = (%v, %v), want (100, 200)", title.X, title.Y)
	}
	if title.FontSize != 48 || title.FontWeight != FontWeightBold || title.Color != "#333" {
		t.Errorf("title typography = %+v", title)
	}
	if want := estimatedWidth(7, 48, 1080); title.Width != want {
		t.Errorf("title.Width = %v, want estimate %v", title.Width, want)
	}
	if title.Height != 72 {
		t.Errorf("title.Height = %v, want 72", title.Height)
	}

	subtitle := doc.Elements[1]
	if subtitle.FontSize != 32 {
		t.Errorf("subtitle.FontSize = %v, want 32", subtitle.FontSize)
	}
	if subtitle.FontWeight != FontWeightNormal {
		t.Errorf("subtitle.FontWeight = %q, want normal for 500", subtitle.FontWeight)
	}
	if subtitle.FontFamily != DefaultFontFamily || subtitle.Color != DefaultColor {
		t.Errorf("subtitle defaults = %q / %q", subtitle.FontFamily, subtitle.Color)
	}

	boxed := doc.Elements[2]
	if boxed.Content != "Join us Friday" {
		t.Errorf("boxed.Content = %q, want descendant text", boxed.Content)
	}
	if boxed.Width != 600 || boxed.Height != 80 {
		t.Errorf("boxed size = %vx%v, want declared 600x80", boxed.Width, boxed.Height)
	}
	if boxed.FontFamily != `"Noto Serif"` || boxed.Opacity != 0.8 {
		t.Errorf("boxed = %+v", boxed)
	}

	logo := doc.Elements[3]
	if logo.ID != "image-1" || logo.Kind != KindImage || logo.Content != "logo.png" {
		t.Errorf("logo = %+v", logo)
	}
	if logo.Width != 64 || logo.Height != 64 {
		t.Errorf("logo size = %vx%v, want 64x64", logo.Width, logo.Height)
	}
}

func TestParseTaggedPreservesCount(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 3, 12} {
		t.Run(fmt.Sprintf("%d children", n), func(t *testing.T) {
			t.Parallel()

			var css, body strings.Builder
			names := make([]string, n)
			for i := 0; i < n; i++ {
				names[i] = fmt.Sprintf("Line number %d", i)
				fmt.Fprintf(&css, ".item-%d { left: %dpx; top: %dpx; font-size: 18px; }\n", i, i*5, i*40)
				fmt.Fprintf(&body, "<div class=\"item-%d\">\n  %s \n</div>\n", i, names[i])
			}
			raw := "<style>" + css.String() + "</style><div class=\"poster-container\">" + body.String() + "</div>"

			doc := Parse(raw, testFallback)

			if len(doc.Elements) != n {
				t.Fatalf("len(Elements) = %d, want %d", len(doc.Elements), n)
			}
			for i, el := range doc.Elements {
				if el.Content != names[i] {
					t.Errorf("Elements[%d].Content = %q, want %q", i, el.Content, names[i])
				}
				if el.Y != float64(i*40) {
					t.Errorf("Elements[%d].Y = %v, want %d", i, el.Y, i*40)
				}
			}
		})
	}
}

func TestParseTaggedMissingSizeKeepsFallback(t *testing.T) {
	t.Parallel()

	raw := `<div class="poster-container"><p class="t">Hi</p></div>`
	doc := Parse(raw, Canvas{Width: 900, Height: 383, BackgroundColor: "#ffffff"})

	if doc.Canvas.Width != 900 || doc.Canvas.Height != 383 {
		t.Errorf("Canvas = %+v, want fallback 900x383", doc.Canvas)
	}
	el := doc.Elements[0]
	if el.X != 0 || el.Y != 0 {
		t.Errorf("position = (%v, %v), want (0, 0)", el.X, el.Y)
	}
	if el.FontSize != DefaultFontSize {
		t.Errorf("FontSize = %v, want %v", el.FontSize, DefaultFontSize)
	}
}

// ---------------------------------------------------------------------------
// Generic dialect
// ---------------------------------------------------------------------------

func TestParseGenericTextEstimate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		fontSize  float64
		wantWidth float64
	}{
		{"short", "Hello", 20, estimatedWidth(5, 20, 800)},
		{"capped at 80 percent", strings.Repeat("a", 100), 20, estimatedWidth(100, 20, 800)},
		{"multibyte counts runes", "你好世界", 30, estimatedWidth(4, 30, 800)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := fmt.Sprintf(`<div style="font-size:%vpx">%s</div>`, tt.fontSize, tt.text)
			doc := Parse(raw, testFallback)

			if len(doc.Elements) != 1 {
				t.Fatalf("len(Elements) = %d, want 1", len(doc.Elements))
			}
			el := doc.Elements[0]
			if el.Width != tt.wantWidth {
				t.Errorf("Width = %v, want %v", el.Width, tt.wantWidth)
			}
			if el.Height != tt.fontSize*1.5 {
				t.Errorf("Height = %v, want %v", el.Height, tt.fontSize*1.5)
			}
		})
	}
}

func TestParseGenericClampsPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		style string
		wantX float64
		wantY float64
	}{
		{"negative offsets", "left:-50px;top:-20px", 0, 0},
		{"overflowing offsets", "left:790px;top:1190px", 800 - estimatedWidth(5, 16, 800), 1200 - 16*1.5},
		{"inside bounds", "left:40px;top:60px", 40, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := Parse(`<div style="position:absolute;`+tt.style+`">Hello</div>`, testFallback)
			el := doc.Elements[0]
			if el.X != tt.wantX || el.Y != tt.wantY {
				t.Errorf("position = (%v, %v), want (%v, %v)", el.X, el.Y, tt.wantX, tt.wantY)
			}
			if el.X < 0 || el.X > doc.Canvas.Width-el.Width || el.Y < 0 || el.Y > doc.Canvas.Height-el.Height {
				t.Errorf("position (%v, %v) escapes canvas", el.X, el.Y)
			}
		})
	}
}

func TestParseGenericAccumulatesOffsets(t *testing.T) {
	t.Parallel()

	raw := `<div style="left:100px;top:50px;font-size:24px;color:#f00">
	  <div style="margin-left:10px;margin-top:5px">
	    <span style="font-weight:bold">A</span>
	  </div>
	</div>`

	doc := Parse(raw, testFallback)

	if len(doc.Elements) != 1 {
		t.Fatalf("len(Elements) = %d, want 1: %+v", len(doc.Elements), doc.Elements)
	}
	el := doc.Elements[0]
	if el.X != 110 || el.Y != 55 {
		t.Errorf("position = (%v, %v), want (110, 55)", el.X, el.Y)
	}
	if el.FontSize != 24 || el.Color != "#f00" || el.FontWeight != FontWeightBold {
		t.Errorf("inherited typography = %+v", el)
	}
}

func TestParseGenericImages(t *testing.T) {
	t.Parallel()

	raw := `<div style="width:600px;height:400px;background-image:url('bg.png')">
	  <img src="photo.jpg" width="120" height="80">
	  <img src="sized.jpg" style="width:50px;height:40px" width="999">
	  <img alt="no source">
	  <div style="background-image:none">x</div>
	</div>`

	doc := Parse(raw, testFallback)

	var images []Element
	for _, el := range doc.Elements {
		if el.Kind == KindImage {
			images = append(images, el)
		}
	}
	if len(images) != 3 {
		t.Fatalf("images = %+v, want 3", images)
	}

	bg := images[0]
	if bg.ID != "bg-1" || bg.Content != "bg.png" || bg.Width != 600 || bg.Height != 400 {
		t.Errorf("background = %+v", bg)
	}
	if images[1].Content != "photo.jpg" || images[1].Width != 120 || images[1].Height != 80 {
		t.Errorf("photo = %+v", images[1])
	}
	if images[2].Width != 50 || images[2].Height != 40 {
		t.Errorf("sized = %+v, want declared 50x40", images[2])
	}
}

func TestParseGenericSkipsNonVisual(t *testing.T) {
	t.Parallel()

	raw := `<html><head><title>Poster</title></head><body>
	<script>var x = "not text";</script>
	<noscript>enable js</noscript>
	<template><p>later</p></template>
	</body></html>`

	doc := Parse(raw, testFallback)
	if len(doc.Elements) != 0 {
		t.Errorf("Elements = %+v, want none", doc.Elements)
	}
}

// ---------------------------------------------------------------------------
// Canvas detection
// ---------------------------------------------------------------------------

func TestParseGenericCanvas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Canvas
	}{
		{
			name: "explicit container",
			raw:  `<div style="width:600px;height:400px;background-color:#123456"><p>x</p></div>`,
			want: Canvas{Width: 600, Height: 400, BackgroundColor: "#123456"},
		},
		{
			name: "small boxes ignored",
			raw:  `<div style="width:100px;height:100px">x</div>`,
			want: testFallback,
		},
		{
			name: "stylesheet pattern",
			raw:  `<style>#poster { width: 750px; margin: 0; height: 1000px; }</style><div id="poster">x</div>`,
			want: Canvas{Width: 750, Height: 1000, BackgroundColor: DefaultBackground},
		},
		{
			name: "nothing recoverable",
			raw:  `<p>plain</p>`,
			want: testFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Parse(tt.raw, testFallback).Canvas; got != tt.want {
				t.Errorf("Canvas = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseUniqueIDs(t *testing.T) {
	t.Parallel()

	raw := `<div style="background:url(a.png)">one<p>two</p><img src="b.png"><img src="c.png"></div>`
	doc := Parse(raw, testFallback)

	seen := make(map[string]bool)
	for _, el := range doc.Elements {
		if seen[el.ID] {
			t.Errorf("duplicate id %q", el.ID)
		}
		seen[el.ID] = true
	}
	if len(seen) != 5 {
		t.Errorf("got %d ids, want 5", len(seen))
	}
}
