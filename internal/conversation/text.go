package conversation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds an utterance for matching: NFKC (so full-width digits and
// letters become ASCII), lower case, trimmed.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// Compact is Normalize with all white space removed.
func Compact(s string) string {
	t := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.White_Space)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.Join(strings.Fields(norm.NFKC.String(s)), "")
	}
	return strings.ToLower(out)
}
