package provenance

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultFileName = "fitgen-image"
	fileExtension   = ".png"
	maxFileNameLen  = 120
)

// SanitizeFileName turns a user supplied name into a safe ASCII file name
// ending in .png. Accents are folded, separators and control characters are
// replaced.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		name = ""
	}

	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, name); err == nil {
		name = folded
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	var b strings.Builder
	lastDash := false
	for _, r := range stem {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	clean := strings.Trim(b.String(), "-.")
	if clean == "" {
		clean = defaultFileName
	}
	if len(clean) > maxFileNameLen {
		clean = strings.TrimRight(clean[:maxFileNameLen], "-.")
	}
	return clean + fileExtension
}
