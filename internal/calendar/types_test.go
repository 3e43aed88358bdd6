package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func TestEventTime(t *testing.T) {
	timed := At(time.Date(2026, 3, 2, 10, 0, 0, 0, tokyo))
	assert.False(t, timed.IsAllDay())
	assert.False(t, timed.IsZero())

	allDay := OnDate(time.Date(2026, 3, 2, 15, 0, 0, 0, tokyo))
	assert.True(t, allDay.IsAllDay())
	assert.Equal(t, "2026-03-02", allDay.Date)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, tokyo), allDay.In(tokyo))

	assert.True(t, EventTime{}.IsZero())
	assert.True(t, EventTime{}.In(tokyo).IsZero())
}

func TestEvent_DurationAndAttendees(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, tokyo)
	e := Event{
		Start: At(start),
		End:   At(start.Add(90 * time.Minute)),
		Attendees: []Attendee{
			{Email: "Alice@Example.com"},
			{Email: "bob@example.com"},
		},
	}

	assert.Equal(t, 90*time.Minute, e.Duration())
	assert.Equal(t, 0, e.FindAttendee("alice@example.com"))
	assert.Equal(t, -1, e.FindAttendee("carol@example.com"))
	assert.Equal(t, []string{"Alice@Example.com", "bob@example.com"}, e.AttendeeEmails())

	allDay := Event{Start: OnDate(start), End: OnDate(start.AddDate(0, 0, 1))}
	assert.True(t, allDay.IsAllDay())
	assert.Zero(t, allDay.Duration())
}

func TestPatch_Apply(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, tokyo)
	original := Event{
		ID:                  "e1",
		Summary:             "定例",
		Location:            "会議室A",
		Start:               At(start),
		End:                 At(start.Add(time.Hour)),
		Attendees:           []Attendee{{Email: "a@example.com"}},
		UseDefaultReminders: true,
	}

	t.Run("empty patch", func(t *testing.T) {
		p := Patch{SendUpdates: SendUpdatesAll}
		assert.True(t, p.IsEmpty())
		assert.Equal(t, original, p.Apply(original))
	})

	t.Run("fields", func(t *testing.T) {
		summary := "定例会議"
		newStart := At(start.Add(2 * time.Hour))
		reminders := []Reminder{{Method: ReminderPopup, Minutes: 15}}
		p := Patch{Summary: &summary, Start: &newStart, Reminders: &reminders}
		require.False(t, p.IsEmpty())

		got := p.Apply(original)
		assert.Equal(t, "定例会議", got.Summary)
		assert.Equal(t, "会議室A", got.Location)
		assert.Equal(t, newStart, got.Start)
		assert.False(t, got.UseDefaultReminders)
		assert.Equal(t, reminders, got.Reminders)
		assert.Equal(t, "定例", original.Summary)
	})

	t.Run("clear attendees", func(t *testing.T) {
		empty := []Attendee{}
		got := Patch{Attendees: &empty}.Apply(original)
		assert.Empty(t, got.Attendees)
		assert.Len(t, original.Attendees, 1)
	})
}

func TestDraftFromEvent(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, tokyo)
	e := Event{
		ID:         "e1",
		Summary:    "1on1",
		Start:      At(start),
		End:        At(start.Add(30 * time.Minute)),
		Attendees:  []Attendee{{Email: "a@example.com"}},
		Recurrence: []string{"RRULE:FREQ=WEEKLY"},
	}

	d := DraftFromEvent(e)
	assert.Equal(t, "1on1", d.Summary)
	assert.Equal(t, e.Start, d.Start)
	assert.Equal(t, e.Recurrence, d.Recurrence)

	d.Attendees[0].Email = "changed@example.com"
	assert.Equal(t, "a@example.com", e.Attendees[0].Email)
}

func TestBusySpans(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, tokyo)
	events := []Event{
		{ID: "timed", Status: "confirmed", Start: At(start), End: At(start.Add(time.Hour))},
		{ID: "allday", Status: "confirmed", Start: OnDate(start), End: OnDate(start.AddDate(0, 0, 1))},
		{ID: "cancelled", Status: "cancelled", Start: At(start), End: At(start.Add(time.Hour))},
	}

	spans := BusySpans(events)
	require.Len(t, spans, 2)
	assert.False(t, spans[0].AllDay)
	assert.Equal(t, start, spans[0].Start)
	assert.True(t, spans[1].AllDay)
}
