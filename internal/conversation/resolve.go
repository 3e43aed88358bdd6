package conversation

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/instrumentation"
)

// User-facing messages.
const (
	MsgCancelled      = "わかりました。キャンセルしました。"
	MsgNoSlotInWindow = "その時間帯には空きがありませんでした。他の条件をお試しください。"
	MsgNoPending      = "確認待ちの提案はありません。"
)

const msgOutOfRangeFmt = "%d番目の候補はありません。1〜%dの番号でお選びください。"

const (
	morningWord    = "朝"
	noonWord       = "昼"
	eveningWord    = "夕方"
	beforeNoonWord = "午前"
	afternoonWord  = "午後"
)

var nextDayPhrases = []string{"翌日", "次の日"}

// OutcomeKind classifies how an utterance was resolved.
type OutcomeKind string

// Outcome kinds.
const (
	// OutcomeIdle means no negotiation is open.
	OutcomeIdle OutcomeKind = "idle"
	// OutcomeRefined means the proposals were narrowed to a time window.
	OutcomeRefined OutcomeKind = "refined"
	// OutcomeRefineEmpty means no slot fell in the window; proposals are unchanged.
	OutcomeRefineEmpty OutcomeKind = "refine_empty"
	// OutcomeSelected means a proposal was picked and awaits commit.
	OutcomeSelected OutcomeKind = "selected"
	// OutcomeOutOfRange means an explicit ordinal named no proposal.
	OutcomeOutOfRange OutcomeKind = "out_of_range"
	// OutcomeCancelled means the negotiation was dropped.
	OutcomeCancelled OutcomeKind = "cancelled"
	// OutcomeDelegate means the utterance should go to the Responder.
	OutcomeDelegate OutcomeKind = "delegate"
)

// Outcome is the result of Resolve.
type Outcome struct {
	Kind OutcomeKind
	// Negotiation is the negotiation the utterance was resolved against.
	Negotiation *Negotiation
	// Proposal and Index are set for OutcomeSelected.
	Proposal Proposal
	Index    int
	// Message is the text to show for every kind except selected and delegate.
	Message string
}

var (
	afterPattern   = regexp.MustCompile(`(\d+)時以降`)
	beforePattern  = regexp.MustCompile(`(\d+)時以前`)
	fromPattern    = regexp.MustCompile(`(\d+)時から`)
	untilPattern   = regexp.MustCompile(`(\d+)時まで`)
	ordinalPattern = regexp.MustCompile(`(\d+)\s*(番目|番|つ目)`)
	barePattern    = regexp.MustCompile(`^(\d+)$`)
	englishWords   = regexp.MustCompile(`[a-z]+`)
)

var affirmativePhrases = []string{
	"それで", "お願い", "はい", "いいよ", "それでいい",
	"1番目", "最初", "やって", "して", "頼む", "よろしく", "了解",
}

var affirmativeWords = []string{"ok", "yes"}

var negativePhrases = []string{"いいえ", "やめて", "キャンセル", "だめ", "違う"}

var negativeWords = []string{"no"}

// TimeWindow bounds proposal start hours: Min inclusive, Max exclusive.
// Nil bounds are open.
type TimeWindow struct {
	Min *int
	Max *int
}

// Contains reports whether hour is inside the window.
func (w TimeWindow) Contains(hour int) bool {
	if w.Min != nil && hour < *w.Min {
		return false
	}
	if w.Max != nil && hour >= *w.Max {
		return false
	}
	return true
}

// ParseTimeWindow extracts a time-of-day constraint from an utterance.
// Later phrases override earlier bounds in the order: N時以降, N時以前,
// N時から, N時まで, 午前(中), 午後, 朝, 昼, 夕方.
func ParseTimeWindow(utterance string) (TimeWindow, bool) {
	s := Normalize(utterance)
	var w TimeWindow
	found := false

	hour := func(p *regexp.Regexp) *int {
		m := p.FindStringSubmatch(s)
		if m == nil {
			return nil
		}
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		found = true
		return &h
	}
	set := func(minHour, maxHour *int) {
		found = true
		if minHour != nil {
			w.Min = minHour
		}
		if maxHour != nil {
			w.Max = maxHour
		}
	}

	if h := hour(afterPattern); h != nil {
		w.Min = h
	}
	if h := hour(beforePattern); h != nil {
		w.Max = h
	}
	if h := hour(fromPattern); h != nil {
		w.Min = h
	}
	if h := hour(untilPattern); h != nil {
		w.Max = h
	}
	if strings.Contains(s, beforeNoonWord) {
		set(nil, intPtr(12))
	}
	if strings.Contains(s, afternoonWord) {
		set(intPtr(12), nil)
	}
	if strings.Contains(s, morningWord) {
		set(intPtr(6), intPtr(10))
	}
	if strings.Contains(s, noonWord) {
		set(intPtr(11), intPtr(14))
	}
	if strings.Contains(s, eveningWord) {
		set(intPtr(16), intPtr(19))
	}
	return w, found
}

func intPtr(v int) *int { return &v }

// Resolve interprets a follow-up utterance against the pending
// negotiation. The checks run in order: time-window refinement, next-day
// reference, numeric selection, affirmative selection, cancellation;
// anything else is delegated. An utterance that carries both an
// affirmative and a negative phrase cancels, so "キャンセルして" never
// commits a slot. A selection does not clear the negotiation; call Commit
// once it has been applied.
func (c *Context) Resolve(ctx context.Context, utterance string) Outcome {
	_, span := instrumentation.StartSpan(ctx, "conversation.resolve")
	defer span.End()

	out := c.resolve(ctx, utterance)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrNegotiate, string(out.Kind)))
	return out
}

func (c *Context) resolve(ctx context.Context, utterance string) Outcome {
	n := c.pending
	if n == nil {
		return Outcome{Kind: OutcomeIdle, Message: MsgNoPending}
	}
	s := Normalize(utterance)

	if window, ok := ParseTimeWindow(s); ok {
		return c.refine(ctx, n, window)
	}

	if containsAny(s, nextDayPhrases) && n.Event != nil {
		loc := c.builder.loc
		nextDay := n.Event.Start.In(loc).AddDate(0, 0, 1).Format("2006-01-02")
		for i, p := range n.Proposed {
			if p.Suggestion.Date == nextDay {
				return Outcome{Kind: OutcomeSelected, Negotiation: n, Proposal: p, Index: i}
			}
		}
	}

	if m := ordinalPattern.FindStringSubmatch(s); m != nil {
		k, _ := strconv.Atoi(m[1])
		if k < 1 || k > len(n.Proposed) {
			return Outcome{
				Kind:        OutcomeOutOfRange,
				Negotiation: n,
				Message:     fmt.Sprintf(msgOutOfRangeFmt, k, len(n.Proposed)),
			}
		}
		return Outcome{Kind: OutcomeSelected, Negotiation: n, Proposal: n.Proposed[k-1], Index: k - 1}
	}
	if m := barePattern.FindStringSubmatch(s); m != nil {
		if k, err := strconv.Atoi(m[1]); err == nil && k >= 1 && k <= len(n.Proposed) {
			return Outcome{Kind: OutcomeSelected, Negotiation: n, Proposal: n.Proposed[k-1], Index: k - 1}
		}
	}

	negative := isNegative(s)
	if !negative && isAffirmative(s) && len(n.Proposed) > 0 {
		return Outcome{Kind: OutcomeSelected, Negotiation: n, Proposal: n.Proposed[0], Index: 0}
	}

	if negative {
		c.metrics.RecordNegotiation(ctx, string(n.Kind), instrumentation.NegotiationCancelled)
		c.pending = nil
		return Outcome{Kind: OutcomeCancelled, Negotiation: n, Message: MsgCancelled}
	}

	return Outcome{Kind: OutcomeDelegate, Negotiation: n}
}

func (c *Context) refine(ctx context.Context, n *Negotiation, window TimeWindow) Outcome {
	loc := c.builder.loc
	filtered := slices.DeleteFunc(slices.Clone(n.Pool), func(slot availability.FreeSlot) bool {
		return !window.Contains(slot.Start.In(loc).Hour())
	})
	if len(filtered) == 0 {
		return Outcome{Kind: OutcomeRefineEmpty, Negotiation: n, Message: MsgNoSlotInWindow}
	}

	n.Proposed = c.builder.Build(filtered, n.DurationMinutes, nil)
	c.metrics.RecordNegotiation(ctx, string(n.Kind), instrumentation.NegotiationRefined)
	return Outcome{Kind: OutcomeRefined, Negotiation: n, Message: c.builder.Message(n)}
}

func isAffirmative(s string) bool {
	return containsAny(s, affirmativePhrases) || hasWord(s, affirmativeWords)
}

func isNegative(s string) bool {
	return containsAny(s, negativePhrases) || hasWord(s, negativeWords)
}

func containsAny(s string, phrases []string) bool {
	return slices.ContainsFunc(phrases, func(p string) bool {
		return strings.Contains(s, p)
	})
}

// hasWord reports whether s contains one of words as a whole ASCII word.
func hasWord(s string, words []string) bool {
	for _, w := range englishWords.FindAllString(s, -1) {
		if slices.Contains(words, w) {
			return true
		}
	}
	return false
}
