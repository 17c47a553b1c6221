// Package watermark hides provenance metadata in the blue-channel least
// significant bits of RGBA pixel buffers and decides, per tier, whether the
// visible overlay applies.
//
// Layout, in pixel order from pixel 0: a 32-bit big-endian count N of payload
// bits, then the N payload bits (each payload byte MSB first). Only bit 0 of
// the blue byte of each used pixel changes.
package watermark

// EmbedStatus reports how much of the payload fit into the buffer.
type EmbedStatus int

const (
	// EmbedComplete means header and payload were written in full.
	EmbedComplete EmbedStatus = iota
	// EmbedTruncated means the buffer ran out of pixels; everything that fit
	// was written and the rest was dropped.
	EmbedTruncated
)

func (s EmbedStatus) String() string {
	switch s {
	case EmbedComplete:
		return "embedded"
	case EmbedTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// Capacity returns the number of payload bits pix can hold after the header.
func Capacity(pix []byte) int {
	n := pixelCount(pix) - headerBits
	if n < 0 {
		return 0
	}
	return n
}

// RequiredPixels returns the number of pixels needed to embed m in full.
func RequiredPixels(m Metadata) int {
	return headerBits + len(EncodePayload(m))*8
}

// Embed writes m into the blue-channel LSBs of pix in place. Red, green and
// alpha bytes are never touched and every blue byte changes by at most one.
// Writes past the last whole pixel are skipped and reported as EmbedTruncated.
func Embed(pix []byte, m Metadata) EmbedStatus {
	payload := []byte(EncodePayload(m))
	bits := make([]uint8, 0, headerBits+len(payload)*8)
	bits = appendUint32Bits(bits, uint32(len(payload)*8))
	bits = appendByteBits(bits, payload)

	total := pixelCount(pix)
	for k, bit := range bits {
		if k >= total {
			return EmbedTruncated
		}
		i := blueIndex(k)
		pix[i] = setLSB(pix[i], bit)
	}
	return EmbedComplete
}

// Extract recovers metadata previously written by Embed. It reports false
// when no well-formed payload is present; a never-watermarked buffer and a
// corrupted one are indistinguishable.
func Extract(pix []byte) (Metadata, bool) {
	total := pixelCount(pix)
	if total < headerBits {
		return Metadata{}, false
	}
	bitLength := bitsToUint32(readLSBs(pix, 0, headerBits))
	if bitLength == 0 || uint64(bitLength) > uint64(total-headerBits) {
		return Metadata{}, false
	}
	payload := bitsToBytes(readLSBs(pix, headerBits, int(bitLength)))
	return DecodePayload(string(payload))
}
