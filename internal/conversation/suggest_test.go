package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/interval"
)

var tokyo = time.FixedZone("JST", 9*60*60)

// 2026-03-02 is a Monday.
func at(day, h, m int) time.Time {
	return time.Date(2026, 3, day, h, m, 0, 0, tokyo)
}

func slot(day, h1, m1, h2, m2 int) availability.FreeSlot {
	start, end := at(day, h1, m1), at(day, h2, m2)
	return availability.FreeSlot{
		Interval:        interval.Interval{Start: start, End: end},
		DurationMinutes: int(end.Sub(start) / time.Minute),
	}
}

func proposalTimes(ps []Proposal) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Suggestion.Date + " " + p.Suggestion.Time
	}
	return out
}

func TestBuilder_SingleDay(t *testing.T) {
	b := NewBuilder(tokyo, 3)
	pool := []availability.FreeSlot{
		slot(2, 9, 0, 10, 0),
		slot(2, 11, 0, 12, 0),
		slot(2, 13, 0, 15, 0),
		slot(2, 16, 0, 18, 0),
	}

	got := b.Build(pool, 60, nil)
	assert.Equal(t, []string{"2026-03-02 09:00", "2026-03-02 11:00", "2026-03-02 13:00"}, proposalTimes(got))
	assert.Equal(t, reasonEarliest, got[0].Suggestion.Reason)
	assert.Equal(t, reasonMorning, got[1].Suggestion.Reason)
	assert.Equal(t, reasonAfternoon, got[2].Suggestion.Reason)
	assert.Equal(t, at(2, 10, 0), got[0].End)
}

func TestBuilder_SpreadsAcrossDates(t *testing.T) {
	b := NewBuilder(tokyo, 3)
	pool := []availability.FreeSlot{
		slot(2, 9, 0, 10, 0),
		slot(2, 11, 0, 12, 0),
		slot(3, 9, 0, 18, 0),
		slot(4, 14, 0, 18, 0),
	}

	got := b.Build(pool, 30, nil)
	assert.Equal(t, []string{"2026-03-02 09:00", "2026-03-03 09:00", "2026-03-04 14:00"}, proposalTimes(got))
}

func TestBuilder_PrefersRequestedTime(t *testing.T) {
	b := NewBuilder(tokyo, 3)
	pool := []availability.FreeSlot{
		slot(2, 9, 0, 10, 0),
		slot(3, 13, 0, 17, 0),
		slot(4, 9, 0, 18, 0),
	}

	got := b.Build(pool, 60, &intent.Clock{Hour: 14})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2026-03-02 09:00", "2026-03-03 14:00", "2026-03-04 14:00"}, proposalTimes(got))
	assert.Equal(t, reasonPreferred, got[1].Suggestion.Reason)
	assert.Equal(t, reasonPreferred, got[2].Suggestion.Reason)
}

func TestBuilder_Deterministic(t *testing.T) {
	b := NewBuilder(tokyo, 0)
	pool := []availability.FreeSlot{slot(2, 9, 0, 18, 0), slot(3, 9, 0, 18, 0)}
	assert.Equal(t, b.Build(pool, 60, nil), b.Build(pool, 60, nil))
	assert.Empty(t, b.Build(nil, 60, nil))
}

func TestBuilder_Message(t *testing.T) {
	b := NewBuilder(tokyo, 3)
	n := &Negotiation{Kind: KindCreate, Title: "打ち合わせ", DurationMinutes: 60}
	n.Proposed = b.Build([]availability.FreeSlot{slot(2, 9, 0, 12, 0)}, 60, nil)

	msg := b.Message(n)
	assert.Contains(t, msg, "「打ち合わせ」の候補として")
	assert.Contains(t, msg, "1. 3月2日(月) 09:00〜10:00")
}
