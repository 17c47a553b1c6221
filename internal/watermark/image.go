package watermark

import (
	"image"
	"image/draw"
)

// Pixels returns the non-premultiplied RGBA bytes of img in row-major order,
// always as a fresh copy of length width*height*4.
func Pixels(img image.Image) []byte {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Stride == b.Dx()*bytesPerPixel {
		start := n.PixOffset(b.Min.X, b.Min.Y)
		out := make([]byte, b.Dx()*b.Dy()*bytesPerPixel)
		copy(out, n.Pix[start:])
		return out
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}

// ExtractImage runs Extract over any decoded image.
func ExtractImage(img image.Image) (Metadata, bool) {
	return Extract(Pixels(img))
}
