package conversation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/holiday"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/response"
)

// DefaultMaxSuggestions is the number of proposals offered at once.
const DefaultMaxSuggestions = 3

const (
	reasonPreferred = "ご希望の時刻に空いています"
	reasonEarliest  = "最も早い空き時間です"
	reasonMorning   = "午前の空き時間です"
	reasonAfternoon = "午後の空き時間です"
)

// Builder picks proposals from a pool of free slots. Given the same input
// it always returns the same proposals.
type Builder struct {
	loc   *time.Location
	limit int
}

// NewBuilder creates a builder that offers at most limit proposals.
func NewBuilder(loc *time.Location, limit int) *Builder {
	if loc == nil {
		loc = time.Local
	}
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}
	return &Builder{loc: loc, limit: limit}
}

// Build returns up to the configured number of proposals, in start order.
// Proposals start at the requested time when a slot can hold the event
// there, otherwise at the start of a slot. Different dates are preferred
// over several proposals on the same date.
func (b *Builder) Build(pool []availability.FreeSlot, durationMinutes int, prefer *intent.Clock) []Proposal {
	duration := time.Duration(durationMinutes) * time.Minute

	var preferred, plain []Proposal
	for _, slot := range pool {
		if prefer != nil {
			at := prefer.On(slot.Start, b.loc)
			if !at.Before(slot.Start) && !at.Add(duration).After(slot.End) {
				preferred = append(preferred, b.proposal(at, duration, reasonPreferred))
			}
		}
		plain = append(plain, b.proposal(slot.Start, duration, ""))
	}

	chosen := spread(preferred, b.limit, nil)
	chosen = spread(plain, b.limit, chosen)

	slices.SortFunc(chosen, func(a, c Proposal) int { return a.Start.Compare(c.Start) })
	for i := range chosen {
		if chosen[i].Suggestion.Reason != "" {
			continue
		}
		switch {
		case i == 0:
			chosen[i].Suggestion.Reason = reasonEarliest
		case chosen[i].Start.In(b.loc).Hour() < 12:
			chosen[i].Suggestion.Reason = reasonMorning
		default:
			chosen[i].Suggestion.Reason = reasonAfternoon
		}
	}
	return chosen
}

func (b *Builder) proposal(start time.Time, duration time.Duration, reason string) Proposal {
	local := start.In(b.loc)
	return Proposal{
		Start: start,
		End:   start.Add(duration),
		Suggestion: response.Suggestion{
			Date:   local.Format(intent.DateLayout),
			Time:   local.Format("15:04"),
			Reason: reason,
		},
	}
}

// spread appends candidates to chosen until it holds limit entries: first one
// per date not yet chosen, then the rest in order. Starts already chosen are
// skipped.
func spread(candidates []Proposal, limit int, chosen []Proposal) []Proposal {
	taken := func(p Proposal) bool {
		return slices.ContainsFunc(chosen, func(c Proposal) bool { return c.Start.Equal(p.Start) })
	}
	dateTaken := func(p Proposal) bool {
		return slices.ContainsFunc(chosen, func(c Proposal) bool { return c.Suggestion.Date == p.Suggestion.Date })
	}

	for _, p := range candidates {
		if len(chosen) >= limit {
			return chosen
		}
		if !taken(p) && !dateTaken(p) {
			chosen = append(chosen, p)
		}
	}
	for _, p := range candidates {
		if len(chosen) >= limit {
			return chosen
		}
		if !taken(p) {
			chosen = append(chosen, p)
		}
	}
	return chosen
}

// Message renders the proposals of n for the user.
func (b *Builder) Message(n *Negotiation) string {
	var sb strings.Builder

	title := n.Title
	if n.Event != nil {
		title = n.Event.Summary
	}
	switch {
	case n.Kind == KindMove:
		fmt.Fprintf(&sb, "「%s」の移動先として、以下の時間はいかがでしょうか？\n", title)
	case title != "":
		fmt.Fprintf(&sb, "「%s」の候補として、以下の時間はいかがでしょうか？\n", title)
	default:
		sb.WriteString("以下の時間はいかがでしょうか？\n")
	}

	for i, p := range n.Proposed {
		start, end := p.Start.In(b.loc), p.End.In(b.loc)
		fmt.Fprintf(&sb, "%d. %s %s〜%s（%s）\n",
			i+1, holiday.FormatDate(start), start.Format("15:04"), end.Format("15:04"), p.Suggestion.Reason)
	}
	sb.WriteString("番号でお選びください。「14時以降」のように条件を付けて絞り込むこともできます。")
	return sb.String()
}
