package watermark

const (
	bytesPerPixel = 4
	blueOffset    = 2

	// headerBits is the width of the big-endian payload bit-length prefix.
	headerBits = 32
)

// pixelCount returns the number of whole RGBA pixels in pix.
func pixelCount(pix []byte) int {
	return len(pix) / bytesPerPixel
}

// blueIndex returns the byte offset of the blue channel of pixel k.
func blueIndex(k int) int {
	return k*bytesPerPixel + blueOffset
}

// setLSB replaces the low-order bit of b.
func setLSB(b byte, bit uint8) byte {
	return (b & 0xFE) | (bit & 1)
}

// appendUint32Bits appends v as 32 bits, most significant first.
func appendUint32Bits(bits []uint8, v uint32) []uint8 {
	for i := 31; i >= 0; i-- {
		bits = append(bits, uint8(v>>uint(i))&1)
	}
	return bits
}

// appendByteBits appends the 8 bits of every byte in data, MSB first.
func appendByteBits(bits []uint8, data []byte) []uint8 {
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1)
		}
	}
	return bits
}

// readLSBs reads n blue-channel LSBs starting at pixel start.
func readLSBs(pix []byte, start, n int) []uint8 {
	bits := make([]uint8, n)
	for i := range bits {
		bits[i] = pix[blueIndex(start+i)] & 1
	}
	return bits
}

// bitsToUint32 folds up to 32 bits, most significant first.
func bitsToUint32(bits []uint8) uint32 {
	var v uint32
	for _, bit := range bits {
		v = v<<1 | uint32(bit&1)
	}
	return v
}

// bitsToBytes groups bits into bytes MSB first. A trailing group shorter than
// eight bits is dropped. Decoding stops at the first NUL byte.
func bitsToBytes(bits []uint8) []byte {
	out := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var b byte
		for _, bit := range bits[i : i+8] {
			b = b<<1 | (bit & 1)
		}
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return out
}
