package canvas

// nrgbaToRGBA premultiplies src into dst. Both are tightly packed RGBA.
func nrgbaToRGBA(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		a := uint32(src[i+3])
		switch a {
		case 0xff:
			copy(dst[i:i+4], src[i:i+4])
		case 0:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
		default:
			dst[i] = uint8((uint32(src[i])*a + 127) / 255)
			dst[i+1] = uint8((uint32(src[i+1])*a + 127) / 255)
			dst[i+2] = uint8((uint32(src[i+2])*a + 127) / 255)
			dst[i+3] = uint8(a)
		}
	}
}

// unpremultiply converts one premultiplied pixel into dst.
func unpremultiply(dst, src []byte) {
	a := uint32(src[3])
	switch a {
	case 0xff:
		copy(dst, src[:4])
	case 0:
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 0
	default:
		dst[0] = clamp8((uint32(src[0])*255 + a/2) / a)
		dst[1] = clamp8((uint32(src[1])*255 + a/2) / a)
		dst[2] = clamp8((uint32(src[2])*255 + a/2) / a)
		dst[3] = uint8(a)
	}
}

func clamp8(v uint32) uint8 {
	if v > 0xff {
		return 0xff
	}
	return uint8(v)
}
