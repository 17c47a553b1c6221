package overlay

import "image/color"

// TextAlign selects the horizontal anchor of drawn text.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// TextBaseline selects the vertical anchor of drawn text.
type TextBaseline int

const (
	BaselineAlphabetic TextBaseline = iota
	BaselineMiddle
	BaselineTop
)

// Font describes the face used by FillText and StrokeText.
type Font struct {
	Size float64
	Bold bool
}

// Context2D is the subset of a 2D drawing context the renderer needs.
// Save and Restore bracket every state change (transform and styles).
type Context2D interface {
	Save()
	Restore()
	Rotate(angle float64)
	SetFont(f Font)
	SetFillStyle(c color.Color)
	SetStrokeStyle(c color.Color)
	SetLineWidth(w float64)
	SetTextAlign(a TextAlign)
	SetTextBaseline(b TextBaseline)
	FillText(text string, x, y float64)
	StrokeText(text string, x, y float64)
}

// Surface is anything the renderer can draw on.
type Surface interface {
	Width() int
	Height() int
	// Context2D reports false when no drawing context is available.
	Context2D() (Context2D, bool)
}
