package posterkit

// Notes:
// - Dialect-specific geometry is covered in internal/markup; these tests pin
//   the public contract: defaults per poster type, metadata, panic safety and
//   the validation split between errors and warnings.

import (
	"fmt"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParse_CanvasDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		posterType PosterType
		wantW      int
		wantH      int
	}{
		{PosterWechat, 900, 383},
		{PosterGeneral, 800, 1200},
		{PosterInvitation, 800, 1200},
		{"", 800, 1200},
	}

	for _, tt := range tests {
		t.Run(string(tt.posterType), func(t *testing.T) {
			t.Parallel()

			for _, raw := range []string{"", "<p>no size hints</p>", "plain text"} {
				got := Parse(raw, tt.posterType).Canvas
				if got.Width != tt.wantW || got.Height != tt.wantH {
					t.Errorf("Parse(%q, %q).Canvas = %dx%d, want %dx%d", raw, tt.posterType, got.Width, got.Height, tt.wantW, tt.wantH)
				}
				if got.BackgroundColor != DefaultBackgroundColor {
					t.Errorf("BackgroundColor = %q, want %q", got.BackgroundColor, DefaultBackgroundColor)
				}
			}
		})
	}
}

func TestParse_TaggedCountPreservation(t *testing.T) {
	t.Parallel()

	names := []string{"Title", "Dear Alice", "Saturday 8pm", "Grand Hall", "RSVP"}
	var css, body strings.Builder
	for i, n := range names {
		fmt.Fprintf(&css, ".el%d { left: 10px; top: %dpx; font-size: 20px; }\n", i, 40*i)
		fmt.Fprintf(&body, `<div class="el%d">  %s </div>`, i, n)
	}
	raw := "<style>.poster-container{width:800px;height:1200px}" + css.String() + "</style>" +
		`<div class="poster-container">` + body.String() + "</div>"

	res := Parse(raw, PosterInvitation)

	if len(res.Elements) != len(names) {
		t.Fatalf("len(Elements) = %d, want %d", len(res.Elements), len(names))
	}
	for i, el := range res.Elements {
		if el.Content != names[i] {
			t.Errorf("Elements[%d].Content = %q, want %q", i, el.Content, names[i])
		}
		if el.Type != ElementText {
			t.Errorf("Elements[%d].Type = %q", i, el.Type)
		}
	}
	if res.Metadata.Dialect != "tagged" {
		t.Errorf("Dialect = %q, want tagged", res.Metadata.Dialect)
	}
}

func TestParse_GenericTextHeuristic(t *testing.T) {
	t.Parallel()

	res := Parse(`<div style="position:absolute;left:-40px;top:5000px;font-size:30px">Hello World</div>`, PosterWechat)
	if len(res.Elements) != 1 {
		t.Fatalf("len(Elements) = %d, want 1", len(res.Elements))
	}
	el := res.Elements[0]

	length, fontSize, canvasWidth := 11.0, 30.0, 900.0
	wantW := min(length*fontSize*0.6, canvasWidth*0.8)
	if el.Width != wantW {
		t.Errorf("Width = %v, want %v", el.Width, wantW)
	}
	if el.X < 0 || el.X > float64(res.Canvas.Width)-el.Width {
		t.Errorf("X = %v outside [0, %v]", el.X, float64(res.Canvas.Width)-el.Width)
	}
	if el.Y < 0 || el.Y > float64(res.Canvas.Height)-el.Height {
		t.Errorf("Y = %v outside [0, %v]", el.Y, float64(res.Canvas.Height)-el.Height)
	}
}

func TestParse_ChatResponse(t *testing.T) {
	t.Parallel()

	raw := "Here you go:\n\n```html\n<div style=\"width:640px;height:480px\"><h1>Hi</h1></div>\n```\n"
	res := Parse(raw, PosterGeneral)

	if res.Canvas.Width != 640 || res.Canvas.Height != 480 {
		t.Errorf("Canvas = %+v, want 640x480 from fenced markup", res.Canvas)
	}
	if res.Metadata.TotalElements != 1 || !res.Metadata.HasText || res.Metadata.HasImages {
		t.Errorf("Metadata = %+v", res.Metadata)
	}
}

func TestParse_Metadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		count int
		want  Complexity
	}{
		{"empty", 0, ComplexitySimple},
		{"five", 5, ComplexitySimple},
		{"six", 6, ComplexityMedium},
		{"ten", 10, ComplexityMedium},
		{"eleven", 11, ComplexityComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var b strings.Builder
			for i := 0; i < tt.count; i++ {
				fmt.Fprintf(&b, "<p>line %d</p>", i)
			}
			res := Parse(b.String(), PosterGeneral)

			if res.Metadata.TotalElements != tt.count {
				t.Fatalf("TotalElements = %d, want %d", res.Metadata.TotalElements, tt.count)
			}
			if res.Metadata.EstimatedComplexity != tt.want {
				t.Errorf("EstimatedComplexity = %q, want %q", res.Metadata.EstimatedComplexity, tt.want)
			}
		})
	}
}

func TestParse_NeverFails(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"<<<>>>",
		"<div style='left:NaNpx;width:Infinity'>x</div>",
		"<style>{{{{}}}} .a { ;;; }</style><div class='a'>x",
		strings.Repeat("<div>", 2000) + "deep" + strings.Repeat("</div>", 2000),
		"\x00\xff\xfe",
		"```html\n```",
	}

	for i, raw := range inputs {
		res := Parse(raw, PosterGeneral)
		if res == nil {
			t.Fatalf("Parse(input %d) = nil", i)
		}
		if res.Elements == nil {
			t.Errorf("Parse(input %d).Elements is nil, want empty slice", i)
		}
		if res.Canvas.Width <= 0 || res.Canvas.Height <= 0 {
			t.Errorf("Parse(input %d).Canvas = %+v", i, res.Canvas)
		}
	}
}

func TestParsePosterType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]PosterType{
		"":           PosterGeneral,
		"general":    PosterGeneral,
		"Invitation": PosterInvitation,
		" wechat ":   PosterWechat,
	} {
		got, err := ParsePosterType(in)
		if err != nil || got != want {
			t.Errorf("ParsePosterType(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}
	if _, err := ParsePosterType("flyer"); err == nil {
		t.Error("ParsePosterType(flyer) error = nil")
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func validText() Element {
	return Element{ID: "text-1", Type: ElementText, Width: 100, Height: 24, Content: "Hi", Opacity: 1}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(*Element)
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{"valid", func(*Element) {}, true, 0, 0},
		{"zero width", func(e *Element) { e.Width = 0 }, false, 1, 0},
		{"negative height", func(e *Element) { e.Height = -5 }, false, 1, 0},
		{"negative x warns", func(e *Element) { e.X = -10 }, true, 0, 1},
		{"negative x and y warn", func(e *Element) { e.X, e.Y = -1, -1 }, true, 0, 2},
		{"missing id", func(e *Element) { e.ID = "" }, false, 1, 0},
		{"missing type", func(e *Element) { e.Type = "" }, false, 1, 0},
		{"unknown type", func(e *Element) { e.Type = "video" }, false, 1, 0},
		{"empty text", func(e *Element) { e.Content = "   " }, false, 1, 0},
		{"empty image source", func(e *Element) { e.Type, e.Content = ElementImage, "" }, false, 1, 0},
		{"several defects", func(e *Element) { e.ID, e.Width, e.Y = "", 0, -3 }, false, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			el := validText()
			tt.mutate(&el)
			got := Validate([]Element{el})

			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (%+v)", got.Valid, tt.wantValid, got)
			}
			if len(got.Errors) != tt.wantErrors {
				t.Errorf("Errors = %v, want %d", got.Errors, tt.wantErrors)
			}
			if len(got.Warnings) != tt.wantWarnings {
				t.Errorf("Warnings = %v, want %d", got.Warnings, tt.wantWarnings)
			}
		})
	}
}

func TestValidate_Empty(t *testing.T) {
	t.Parallel()

	for _, in := range [][]Element{nil, {}} {
		got := Validate(in)
		if !got.Valid || len(got.Errors) != 0 || len(got.Warnings) != 0 {
			t.Errorf("Validate(%v) = %+v, want valid", in, got)
		}
	}
}

func TestValidate_ParsedOutputIsValid(t *testing.T) {
	t.Parallel()

	raw := `<div style="width:600px;height:400px;background:url(bg.png)">
	  <h1 style="font-size:40px">Welcome</h1>
	  <img src="logo.png" width="80" height="80">
	</div>`
	res := Parse(raw, PosterGeneral)
	if v := Validate(res.Elements); !v.Valid {
		t.Errorf("Validate(Parse()) = %+v", v)
	}
}
