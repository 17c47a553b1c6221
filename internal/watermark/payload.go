package watermark

import (
	"math"
	"strconv"
	"strings"
)

// Marker prefixes every embedded payload. Later codec revisions bump the
// version digit (FG2|, ...).
const Marker = "FG1|"

const fieldSeparator = "|"

// Metadata is the provenance triple carried by the invisible watermark.
// UserID and ImageID must not contain the field separator; this is not
// validated.
type Metadata struct {
	UserID    string `json:"user_id"`
	ImageID   string `json:"image_id"`
	Timestamp int64  `json:"timestamp"`
}

// EncodePayload renders m as MARKER|userId|imageId|timestamp.
func EncodePayload(m Metadata) string {
	var b strings.Builder
	b.Grow(len(Marker) + len(m.UserID) + len(m.ImageID) + 22)
	b.WriteString(Marker)
	b.WriteString(m.UserID)
	b.WriteString(fieldSeparator)
	b.WriteString(m.ImageID)
	b.WriteString(fieldSeparator)
	b.WriteString(strconv.FormatInt(m.Timestamp, 10))
	return b.String()
}

// DecodePayload parses a string produced by EncodePayload. It reports false
// when the marker does not match, the field count is not three or the
// timestamp is not a finite number. Fractional timestamps from other writers
// are truncated toward zero.
func DecodePayload(s string) (Metadata, bool) {
	rest, ok := strings.CutPrefix(s, Marker)
	if !ok {
		return Metadata{}, false
	}
	fields := strings.Split(rest, fieldSeparator)
	if len(fields) != 3 {
		return Metadata{}, false
	}
	ts, ok := parseTimestamp(fields[2])
	if !ok {
		return Metadata{}, false
	}
	return Metadata{UserID: fields[0], ImageID: fields[1], Timestamp: ts}, true
}

func parseTimestamp(s string) (int64, bool) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// float64(MaxInt64) rounds up to 2^63, which is out of range.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
