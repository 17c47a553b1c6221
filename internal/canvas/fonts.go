package canvas

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"studio/internal/watermark/overlay"
)

const defaultFontSize = 10

var (
	fontsOnce   sync.Once
	regularFont *truetype.Font
	boldFont    *truetype.Font
	fontsErr    error
)

func loadFonts() {
	regularFont, fontsErr = truetype.Parse(goregular.TTF)
	if fontsErr != nil {
		return
	}
	boldFont, fontsErr = truetype.Parse(gobold.TTF)
}

// newFace builds a face for f from the embedded Go fonts. It falls back to a
// fixed bitmap face if the fonts cannot be parsed.
func newFace(f overlay.Font) font.Face {
	fontsOnce.Do(loadFonts)
	if fontsErr != nil {
		return basicfont.Face7x13
	}
	ttf := regularFont
	if f.Bold {
		ttf = boldFont
	}
	size := f.Size
	if size <= 0 {
		size = defaultFontSize
	}
	return truetype.NewFace(ttf, &truetype.Options{Size: size, Hinting: font.HintingNone})
}
