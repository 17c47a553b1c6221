package canvas

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"studio/internal/watermark/overlay"
)

func uniform(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestFromImageImageData(t *testing.T) {
	src := uniform(7, 5, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	s := FromImage(src)
	if s.Width() != 7 || s.Height() != 5 {
		t.Fatalf("size = %dx%d, want 7x5", s.Width(), s.Height())
	}
	pix := s.ImageData()
	if len(pix) != 7*5*4 {
		t.Fatalf("len(ImageData()) = %d, want %d", len(pix), 7*5*4)
	}
	if !bytes.Equal(pix, src.Pix) {
		t.Fatalf("ImageData() differs from source")
	}
	pix[0] = 99
	if s.Image().Pix[0] == 99 {
		t.Fatalf("ImageData() aliases the surface")
	}
}

func TestFromImageOffsetBounds(t *testing.T) {
	src := uniform(10, 10, color.NRGBA{R: 5, A: 255})
	src.SetNRGBA(4, 6, color.NRGBA{R: 200, A: 255})
	s := FromImage(src.SubImage(image.Rect(4, 6, 8, 9)))
	if s.Width() != 4 || s.Height() != 3 {
		t.Fatalf("size = %dx%d, want 4x3", s.Width(), s.Height())
	}
	if got := s.Image().NRGBAAt(0, 0).R; got != 200 {
		t.Fatalf("origin pixel R = %d, want 200", got)
	}
}

func TestPutImageDataLength(t *testing.T) {
	s := New(2, 2)
	err := s.PutImageData(make([]byte, 15))
	if !errors.Is(err, ErrPixelLength) {
		t.Fatalf("PutImageData() error = %v, want ErrPixelLength", err)
	}
}

func TestPutImageDataReachesPNG(t *testing.T) {
	s := FromImage(uniform(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 77}))
	pix := s.ImageData()
	for i := 2; i < len(pix); i += 4 {
		pix[i] |= 1
	}
	if err := s.PutImageData(pix); err != nil {
		t.Fatalf("PutImageData() error: %v", err)
	}
	data, err := s.PNG()
	if err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	n, ok := decoded.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded %T, want *image.NRGBA", decoded)
	}
	if !bytes.Equal(n.Pix, pix) {
		t.Fatalf("decoded pixels differ from written pixels")
	}
}

func TestEmptySurfaceHasNoContext(t *testing.T) {
	if _, ok := New(0, 10).Context2D(); ok {
		t.Fatalf("Context2D() available on an empty surface")
	}
}

func TestRenderOverlayChangesPixels(t *testing.T) {
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	s := FromImage(uniform(200, 200, gray))
	if status := overlay.Render(s); status != overlay.Rendered {
		t.Fatalf("Render() = %v, want %v", status, overlay.Rendered)
	}
	img := s.Image()
	lighter := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] > gray.R {
			lighter++
		}
	}
	if lighter == 0 {
		t.Fatalf("overlay did not lighten any pixel")
	}
	if lighter == 200*200 {
		t.Fatalf("overlay covered every pixel")
	}

	ctx, _ := s.Context2D()
	c := ctx.(*context2D)
	if len(c.stack) != 0 {
		t.Fatalf("drawing state stack depth = %d after Render, want 0", len(c.stack))
	}
	if c.state.font.Size != defaultFontSize || c.state.align != overlay.AlignLeft {
		t.Fatalf("drawing state leaked out of Render: %+v", c.state)
	}
}

func TestDrawingKeepsUntouchedTranslucentPixels(t *testing.T) {
	src := uniform(300, 300, color.NRGBA{R: 201, G: 33, B: 77, A: 100})
	s := FromImage(src)
	overlay.Render(s)
	img := s.Image()
	same := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if bytes.Equal(img.Pix[i:i+4], src.Pix[i:i+4]) {
			same++
		}
	}
	if same == 0 {
		t.Fatalf("no pixel kept its original value")
	}
}

func TestStrokeTextUsesStrokeColor(t *testing.T) {
	s := FromImage(uniform(120, 60, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	ctx, ok := s.Context2D()
	if !ok {
		t.Fatalf("Context2D() unavailable")
	}
	ctx.SetFont(overlay.Font{Size: 24, Bold: true})
	ctx.SetStrokeStyle(color.NRGBA{A: 255})
	ctx.SetTextAlign(overlay.AlignCenter)
	ctx.SetTextBaseline(overlay.BaselineMiddle)
	ctx.StrokeText("Fit", 60, 30)

	img := s.Image()
	dark := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] < 128 {
			dark++
		}
	}
	if dark == 0 {
		t.Fatalf("StrokeText() drew nothing")
	}
}
