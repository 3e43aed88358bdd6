package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/calendar"
)

func openMove(t *testing.T, pool []availability.FreeSlot) *Context {
	t.Helper()
	c := NewContext(NewBuilder(tokyo, 3), nil)
	event := calendar.Event{
		ID:      "evt-1",
		Summary: "定例",
		Start:   calendar.At(at(2, 10, 0)),
		End:     calendar.At(at(2, 11, 0)),
	}
	c.Open(context.Background(), Negotiation{Kind: KindMove, Event: &event, DurationMinutes: 60, Pool: pool})
	require.Equal(t, StateAwaitingSelection, c.State())
	return c
}

func threeSlots() []availability.FreeSlot {
	return []availability.FreeSlot{
		slot(3, 9, 0, 10, 0),
		slot(3, 13, 0, 14, 0),
		slot(3, 15, 0, 16, 0),
	}
}

func TestResolve_Idle(t *testing.T) {
	c := NewContext(NewBuilder(tokyo, 3), nil)
	assert.Equal(t, StateIdle, c.State())

	out := c.Resolve(context.Background(), "はい")
	assert.Equal(t, OutcomeIdle, out.Kind)
	assert.Equal(t, MsgNoPending, out.Message)
}

func TestResolve_RefineAfterHour(t *testing.T) {
	c := openMove(t, threeSlots())

	out := c.Resolve(context.Background(), "14時以降")
	require.Equal(t, OutcomeRefined, out.Kind)
	assert.Equal(t, []string{"2026-03-03 15:00"}, proposalTimes(out.Negotiation.Proposed))
	assert.Equal(t, StateAwaitingSelection, c.State())
	assert.Len(t, out.Negotiation.Pool, 3)
}

func TestResolve_RefineEmptyKeepsProposals(t *testing.T) {
	c := openMove(t, threeSlots())

	out := c.Resolve(context.Background(), "夕方")
	assert.Equal(t, OutcomeRefineEmpty, out.Kind)
	assert.Equal(t, MsgNoSlotInWindow, out.Message)

	n, ok := c.Pending()
	require.True(t, ok)
	assert.Len(t, n.Proposed, 3)
}

func TestResolve_BareNumberSelects(t *testing.T) {
	c := openMove(t, threeSlots())

	out := c.Resolve(context.Background(), "2")
	require.Equal(t, OutcomeSelected, out.Kind)
	assert.Equal(t, 1, out.Index)
	assert.Equal(t, at(3, 13, 0), out.Proposal.Start)
	assert.Equal(t, StateAwaitingSelection, c.State())

	c.Commit(context.Background())
	assert.Equal(t, StateIdle, c.State())
}

func TestResolve_Ordinals(t *testing.T) {
	tests := []struct {
		utterance string
		kind      OutcomeKind
		index     int
	}{
		{"3番目でお願いします", OutcomeSelected, 2},
		{"２つ目", OutcomeSelected, 1},
		{"1番", OutcomeSelected, 0},
		{"5番目", OutcomeOutOfRange, 0},
		{"7", OutcomeDelegate, 0},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			c := openMove(t, threeSlots())
			out := c.Resolve(context.Background(), tt.utterance)
			assert.Equal(t, tt.kind, out.Kind)
			if tt.kind == OutcomeSelected {
				assert.Equal(t, tt.index, out.Index)
			}
			assert.Equal(t, StateAwaitingSelection, c.State())
		})
	}
}

func TestResolve_Affirmative(t *testing.T) {
	for _, u := range []string{"それでお願いします", "OK", "yes please", "了解"} {
		t.Run(u, func(t *testing.T) {
			c := openMove(t, threeSlots())
			out := c.Resolve(context.Background(), u)
			require.Equal(t, OutcomeSelected, out.Kind)
			assert.Equal(t, 0, out.Index)
		})
	}
}

func TestResolve_Cancel(t *testing.T) {
	for _, u := range []string{"キャンセルして", "いいえ", "no thanks", "やめて"} {
		t.Run(u, func(t *testing.T) {
			c := openMove(t, threeSlots())
			out := c.Resolve(context.Background(), u)
			assert.Equal(t, OutcomeCancelled, out.Kind)
			assert.Equal(t, MsgCancelled, out.Message)
			assert.Equal(t, StateIdle, c.State())
		})
	}
}

func TestResolve_NegativeWinsOverAffirmative(t *testing.T) {
	for _, u := range []string{"いいえ、それでいい", "違う日でお願い", "キャンセルしてください"} {
		t.Run(u, func(t *testing.T) {
			c := openMove(t, threeSlots())
			out := c.Resolve(context.Background(), u)
			assert.Equal(t, OutcomeCancelled, out.Kind)
			assert.Equal(t, StateIdle, c.State())
		})
	}
}

func TestResolve_NextDay(t *testing.T) {
	c := openMove(t, []availability.FreeSlot{
		slot(3, 9, 0, 10, 0),
		slot(4, 9, 0, 10, 0),
		slot(5, 9, 0, 10, 0),
	})
	n, _ := c.Pending()
	require.Len(t, n.Proposed, 3)

	for _, u := range []string{"翌日で", "次の日がいい"} {
		out := c.Resolve(context.Background(), u)
		require.Equal(t, OutcomeSelected, out.Kind, u)
		assert.Equal(t, "2026-03-03", out.Proposal.Suggestion.Date, u)
	}
}

func TestResolve_NextDayWithoutMatchFallsThrough(t *testing.T) {
	c := openMove(t, []availability.FreeSlot{slot(5, 9, 0, 10, 0)})

	out := c.Resolve(context.Background(), "翌日は？")
	assert.Equal(t, OutcomeDelegate, out.Kind)
}

func TestResolve_Delegate(t *testing.T) {
	c := openMove(t, threeSlots())

	out := c.Resolve(context.Background(), "会議の議題は何？")
	assert.Equal(t, OutcomeDelegate, out.Kind)
	assert.Equal(t, StateAwaitingSelection, c.State())
}

func TestContext_OpenReplaces(t *testing.T) {
	c := openMove(t, threeSlots())
	c.Open(context.Background(), Negotiation{Kind: KindCreate, Title: "新規", DurationMinutes: 30, Pool: threeSlots()})

	n, ok := c.Pending()
	require.True(t, ok)
	assert.Equal(t, KindCreate, n.Kind)
	assert.Nil(t, n.EventView())
}

func TestParseTimeWindow(t *testing.T) {
	tests := []struct {
		in       string
		ok       bool
		min, max int // -1 for open
	}{
		{"14時以降", true, 14, -1},
		{"１６時まで", true, -1, 16},
		{"10時から15時まで", true, 10, 15},
		{"午前中", true, -1, 12},
		{"午前で", true, -1, 12},
		{"午後がいい", true, 12, -1},
		{"朝", true, 6, 10},
		{"昼", true, 11, 14},
		{"夕方", true, 16, 19},
		{"2番目", false, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, ok := ParseTimeWindow(tt.in)
			require.Equal(t, tt.ok, ok)
			if tt.min < 0 {
				assert.Nil(t, w.Min)
			} else {
				require.NotNil(t, w.Min)
				assert.Equal(t, tt.min, *w.Min)
			}
			if tt.max < 0 {
				assert.Nil(t, w.Max)
			} else {
				require.NotNil(t, w.Max)
				assert.Equal(t, tt.max, *w.Max)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ok 2番目", Normalize("  ＯＫ ２番目 "))
	assert.Equal(t, "weeklysync", Compact("Weekly　Sync"))
}
