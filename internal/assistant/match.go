package assistant

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/intent"
)

const msgEventNotFoundFmt = "%sに「%s」に該当するイベントが見つかりませんでした。"

// stopWords are dropped from a search phrase before it is tokenized.
var stopWords = []string{
	"の予定", "予定", "の会議", "ミーティング", "打ち合わせ", "イベント",
	"を", "の", "に", "で", "は", "が", "と",
	"the", "a", "an", "meeting", "event",
}

// combiningMark matches accents on Latin letters. The Japanese voiced
// sound marks are kept so that が and か stay distinct.
var combiningMark = runes.Predicate(func(r rune) bool {
	return unicode.Is(unicode.Mn, r) && r != '\u3099' && r != '\u309a'
})

// fold reduces s to its comparable form: compatibility-normalized,
// accent-free, lower-case, with all whitespace removed.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(combiningMark), runes.Remove(runes.In(unicode.White_Space)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// queryVariants returns the forms of a search phrase tried against titles:
// the whole phrase, the phrase without stop words, and each remaining
// token longer than one character.
func queryVariants(query string) []string {
	var variants []string
	add := func(v string) {
		v = fold(v)
		if v != "" && !slices.Contains(variants, v) {
			variants = append(variants, v)
		}
	}

	add(query)
	stripped := " " + strings.ToLower(norm.NFKC.String(query)) + " "
	for _, w := range stopWords {
		if isASCII(w) {
			stripped = strings.ReplaceAll(stripped, " "+w+" ", " ")
			continue
		}
		stripped = strings.ReplaceAll(stripped, w, " ")
	}
	add(stripped)
	for _, token := range strings.Fields(stripped) {
		if utf8.RuneCountInString(token) > 1 {
			add(token)
		}
	}
	return variants
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// matchesTitle reports whether any variant is a substring of the folded title.
func matchesTitle(title string, variants []string) bool {
	folded := fold(title)
	for _, v := range variants {
		if strings.Contains(folded, v) {
			return true
		}
	}
	return false
}

// findEvent returns the first event of the target day, in calendar order,
// whose title matches the target query. An empty query matches the first
// event of the day.
func (d *Dispatcher) findEvent(ctx context.Context, target intent.Target) (calendar.Event, error) {
	day := d.startOfDay(target.Date)
	events, err := d.gateway.GetEvents(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return calendar.Event{}, err
	}
	variants := queryVariants(target.Query)
	for _, e := range events {
		if e.Status == "cancelled" {
			continue
		}
		if len(variants) == 0 || matchesTitle(e.Summary, variants) {
			return e, nil
		}
	}
	return calendar.Event{}, apperrors.NewNotFound("event",
		fmt.Sprintf(msgEventNotFoundFmt, dateLabel(target.DateText, day), target.Query))
}
