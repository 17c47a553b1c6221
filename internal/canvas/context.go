package canvas

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"studio/internal/watermark/overlay"
)

type drawState struct {
	font      overlay.Font
	face      font.Face
	fill      color.Color
	stroke    color.Color
	lineWidth float64
	align     overlay.TextAlign
	baseline  overlay.TextBaseline
}

type outlineKey struct {
	text      string
	font      overlay.Font
	lineWidth float64
	stroke    color.NRGBA
}

// context2D implements overlay.Context2D on top of a gg context bound to the
// premultiplied drawing buffer of a Surface. gg owns the transform; the style
// state is kept here so Save and Restore cover both.
type context2D struct {
	surface  *Surface
	dc       *gg.Context
	state    drawState
	stack    []drawState
	outlines map[outlineKey]image.Image
}

func newContext2D(s *Surface) *context2D {
	c := &context2D{
		surface:  s,
		dc:       gg.NewContextForRGBA(s.rgba),
		outlines: make(map[outlineKey]image.Image),
		state: drawState{
			font:      overlay.Font{Size: defaultFontSize},
			fill:      color.Black,
			stroke:    color.Black,
			lineWidth: 1,
		},
	}
	c.state.face = newFace(c.state.font)
	c.dc.SetFontFace(c.state.face)
	return c
}

func (c *context2D) Save() {
	c.dc.Push()
	c.stack = append(c.stack, c.state)
}

func (c *context2D) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.dc.Pop()
	c.dc.SetFontFace(c.state.face)
}

func (c *context2D) Rotate(angle float64) {
	c.dc.Rotate(angle)
}

func (c *context2D) SetFont(f overlay.Font) {
	if f == c.state.font {
		return
	}
	c.state.font = f
	c.state.face = newFace(f)
	c.dc.SetFontFace(c.state.face)
}

func (c *context2D) SetFillStyle(col color.Color) {
	if col != nil {
		c.state.fill = col
	}
}

func (c *context2D) SetStrokeStyle(col color.Color) {
	if col != nil {
		c.state.stroke = col
	}
}

func (c *context2D) SetLineWidth(w float64) {
	if w > 0 && !math.IsInf(w, 0) && !math.IsNaN(w) {
		c.state.lineWidth = w
	}
}

func (c *context2D) SetTextAlign(a overlay.TextAlign) { c.state.align = a }

func (c *context2D) SetTextBaseline(b overlay.TextBaseline) { c.state.baseline = b }

func (c *context2D) FillText(text string, x, y float64) {
	if text == "" {
		return
	}
	ax, ay := c.anchor()
	c.dc.SetColor(c.state.fill)
	c.dc.DrawStringAnchored(text, x, y, ax, ay)
	c.surface.markDirty()
}

// StrokeText draws the outline of text. The outline is rasterized once per
// text and style into an offscreen ring and then placed through the current
// transform, the same way the glyphs of FillText are.
func (c *context2D) StrokeText(text string, x, y float64) {
	if text == "" {
		return
	}
	ring := c.outline(text)
	w, h := c.dc.MeasureString(text)
	ax, ay := c.anchor()
	cx := x - ax*w + w/2
	cy := y + ay*h - h/2
	c.dc.DrawImageAnchored(ring, int(math.Round(cx)), int(math.Round(cy)), 0.5, 0.5)
	c.surface.markDirty()
}

func (c *context2D) anchor() (float64, float64) {
	var ax, ay float64
	switch c.state.align {
	case overlay.AlignCenter:
		ax = 0.5
	case overlay.AlignRight:
		ax = 1
	}
	switch c.state.baseline {
	case overlay.BaselineMiddle:
		ay = 0.5
	case overlay.BaselineTop:
		ay = 1
	}
	return ax, ay
}

func (c *context2D) outline(text string) image.Image {
	stroke := color.NRGBAModel.Convert(c.state.stroke).(color.NRGBA)
	key := outlineKey{text: text, font: c.state.font, lineWidth: c.state.lineWidth, stroke: stroke}
	if img, ok := c.outlines[key]; ok {
		return img
	}

	w, h := c.dc.MeasureString(text)
	radius := int(math.Ceil(c.state.lineWidth / 2))
	if radius < 1 {
		radius = 1
	}
	pad := int(math.Ceil(h/2)) + radius
	width := evenCeil(w) + 2*pad
	height := evenCeil(h) + 2*pad

	mask := gg.NewContext(width, height)
	mask.SetFontFace(c.state.face)
	mask.SetColor(color.White)
	mask.DrawStringAnchored(text, float64(width)/2, float64(height)/2, 0.5, 0.5)
	coverage := alphaChannel(mask.Image().(*image.RGBA))

	ring := strokeRing(coverage, width, height, radius)
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, a := range ring {
		if a == 0 {
			continue
		}
		p := out.Pix[i*4 : i*4+4]
		p[0], p[1], p[2] = stroke.R, stroke.G, stroke.B
		p[3] = uint8(uint32(a) * uint32(stroke.A) / 255)
	}
	c.outlines[key] = out
	return out
}

func evenCeil(v float64) int {
	n := int(math.Ceil(v))
	if n%2 != 0 {
		n++
	}
	return n
}

func alphaChannel(img *image.RGBA) []uint8 {
	out := make([]uint8, len(img.Pix)/4)
	for i := range out {
		out[i] = img.Pix[i*4+3]
	}
	return out
}

// strokeRing returns dilate(coverage) - erode(coverage) over a square window
// of the given radius, which is a band of roughly 2*radius pixels centred on
// the glyph edges.
func strokeRing(coverage []uint8, width, height, radius int) []uint8 {
	ring := make([]uint8, len(coverage))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lo, hi := uint8(0xff), uint8(0)
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					var v uint8
					if xx >= 0 && xx < width && yy >= 0 && yy < height {
						v = coverage[yy*width+xx]
					}
					if v < lo {
						lo = v
					}
					if v > hi {
						hi = v
					}
				}
			}
			ring[y*width+x] = hi - lo
		}
	}
	return ring
}

var _ overlay.Context2D = (*context2D)(nil)
