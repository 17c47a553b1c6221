// Package overlay draws the tiled diagonal brand mark applied to free-tier
// exports.
package overlay

import (
	"image/color"
	"math"
)

// Text is the brand string tiled across the surface.
const Text = "FitGen Studio"

const (
	minFontSize     = 16
	fontSizeRatio   = 0.04
	spacingX        = 10
	spacingY        = 5
	rotation        = -math.Pi / 6
	strokeLineWidth = 1
)

var (
	// translucent white, alpha 0.35
	fillColor = color.NRGBA{R: 255, G: 255, B: 255, A: 89}
	// translucent black, alpha 0.15
	strokeColor = color.NRGBA{R: 0, G: 0, B: 0, A: 38}
)

// Status reports whether the overlay was drawn.
type Status int

const (
	// Rendered means the tiled text was drawn onto the surface.
	Rendered Status = iota
	// Skipped means the surface offered no drawing context.
	Skipped
)

func (s Status) String() string {
	if s == Rendered {
		return "rendered"
	}
	return "skipped"
}

// Renderer tiles Text across a surface. The zero value uses the brand text.
type Renderer struct {
	Text string
}

// Render draws the overlay with the default renderer.
func Render(s Surface) Status {
	return Renderer{}.Render(s)
}

// FontSize returns the overlay font size for a width x height surface.
func FontSize(width, height int) float64 {
	short := width
	if height < short {
		short = height
	}
	return math.Max(minFontSize, math.Round(float64(short)*fontSizeRatio))
}

// Render draws the rotated text grid. Drawing state is saved before and
// restored after, so the surface transform and styles are unchanged for
// later operations.
func (r Renderer) Render(s Surface) Status {
	if s == nil {
		return Skipped
	}
	ctx, ok := s.Context2D()
	if !ok || ctx == nil {
		return Skipped
	}
	text := r.Text
	if text == "" {
		text = Text
	}

	width, height := s.Width(), s.Height()
	size := FontSize(width, height)
	diagonal := math.Hypot(float64(width), float64(height))
	stepX := size * spacingX
	stepY := size * spacingY

	ctx.Save()
	defer ctx.Restore()

	ctx.SetFont(Font{Size: size, Bold: true})
	ctx.SetFillStyle(fillColor)
	ctx.SetStrokeStyle(strokeColor)
	ctx.SetLineWidth(strokeLineWidth)
	ctx.SetTextAlign(AlignCenter)
	ctx.SetTextBaseline(BaselineMiddle)
	ctx.Rotate(rotation)

	for y := -diagonal; y < diagonal; y += stepY {
		for x := -diagonal; x < diagonal; x += stepX {
			ctx.FillText(text, x, y)
			ctx.StrokeText(text, x, y)
		}
	}
	return Rendered
}
