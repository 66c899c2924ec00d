package match

import (
	"strings"
	"unicode"

	"github.com/desertthunder/dzx/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the comparison string for t: artist and title joined by a single space.
//
// Blank parts are omitted. The album is never included.
func Normalize(t models.Track) string {
	parts := make([]string, 0, 2)
	if artist := strings.TrimSpace(t.Artist); artist != "" {
		parts = append(parts, artist)
	}
	if title := strings.TrimSpace(t.Title); title != "" {
		parts = append(parts, title)
	}
	return strings.Join(parts, " ")
}

// Fold lower-cases s, strips diacritics and replaces every run of non-alphanumeric characters with one space.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	space := true
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
