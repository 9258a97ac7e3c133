package onboarding

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify derives an occasion id from a label.
//
// Accents are folded ("Fête" -> "fete"), apostrophes are dropped, and any
// other run of characters that are not letters or digits becomes a single
// hyphen. Leading and trailing hyphens are trimmed, so "Mom's Day" gives
// "moms-day" and "Back to School / Fall" gives "back-to-school-fall".
func Slugify(label string) string {
	// transform chains keep state, build one per call
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, label)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		default:
			hyphen = true
		}
	}
	return b.String()
}
