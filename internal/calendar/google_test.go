package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
)

func TestFromGoogleEvent(t *testing.T) {
	item := &gcal.Event{
		Id:      "abc",
		Summary: "定例",
		Status:  "confirmed",
		Start:   &gcal.EventDateTime{DateTime: "2026-03-02T10:00:00+09:00", TimeZone: "Asia/Tokyo"},
		End:     &gcal.EventDateTime{DateTime: "2026-03-02T11:00:00+09:00"},
		Attendees: []*gcal.EventAttendee{
			{Email: "me@example.com", Self: true, ResponseStatus: "accepted"},
			{Email: "room@resource.calendar.google.com", Resource: true},
		},
		Reminders: &gcal.EventReminders{
			Overrides: []*gcal.EventReminder{{Method: "popup", Minutes: 10}},
		},
	}

	e := fromGoogleEvent(item)
	assert.Equal(t, "abc", e.ID)
	assert.False(t, e.IsAllDay())
	assert.Equal(t, time.Hour, e.Duration())
	assert.Equal(t, "Asia/Tokyo", e.Start.TimeZone)
	require.Len(t, e.Attendees, 2)
	assert.True(t, e.Attendees[0].Self)
	assert.True(t, e.Attendees[1].Resource)
	assert.Equal(t, []Reminder{{Method: "popup", Minutes: 10}}, e.Reminders)
}

func TestFromGoogleEvent_AllDay(t *testing.T) {
	e := fromGoogleEvent(&gcal.Event{
		Id:    "d",
		Start: &gcal.EventDateTime{Date: "2026-03-02"},
		End:   &gcal.EventDateTime{Date: "2026-03-03"},
	})
	assert.True(t, e.IsAllDay())
	assert.Equal(t, "2026-03-02", e.Start.Date)
	assert.Equal(t, Event{}, fromGoogleEvent(nil))
}

func TestToGoogleTime(t *testing.T) {
	timed := toGoogleTime(At(time.Date(2026, 3, 2, 10, 0, 0, 0, tokyo)), "Asia/Tokyo")
	assert.Equal(t, "2026-03-02T10:00:00+09:00", timed.DateTime)
	assert.Equal(t, "Asia/Tokyo", timed.TimeZone)

	allDay := toGoogleTime(EventTime{Date: "2026-03-02"}, "Asia/Tokyo")
	assert.Equal(t, "2026-03-02", allDay.Date)
	assert.Empty(t, allDay.DateTime)
}

func TestToGooglePatch(t *testing.T) {
	t.Run("clears description", func(t *testing.T) {
		empty := ""
		item := toGooglePatch(Patch{Description: &empty}, "UTC")
		assert.Equal(t, []string{"Description"}, item.ForceSendFields)
		assert.Nil(t, item.Start)
	})

	t.Run("all-day times null the timed form", func(t *testing.T) {
		start, end := EventTime{Date: "2026-03-02"}, EventTime{Date: "2026-03-03"}
		item := toGooglePatch(Patch{Start: &start, End: &end}, "Asia/Tokyo")
		require.NotNil(t, item.Start)
		assert.Equal(t, "2026-03-02", item.Start.Date)
		assert.Equal(t, []string{"DateTime", "TimeZone"}, item.Start.NullFields)
		assert.Equal(t, []string{"DateTime", "TimeZone"}, item.End.NullFields)

		body, err := item.Start.MarshalJSON()
		require.NoError(t, err)
		assert.JSONEq(t, `{"date":"2026-03-02","dateTime":null,"timeZone":null}`, string(body))
	})

	t.Run("timed times null the date form", func(t *testing.T) {
		start := At(time.Date(2026, 3, 2, 10, 0, 0, 0, tokyo))
		item := toGooglePatch(Patch{Start: &start}, "Asia/Tokyo")
		require.NotNil(t, item.Start)
		assert.Equal(t, []string{"Date"}, item.Start.NullFields)
		assert.Nil(t, item.End)
	})

	t.Run("empty attendee list is sent", func(t *testing.T) {
		none := []Attendee{}
		item := toGooglePatch(Patch{Attendees: &none}, "UTC")
		assert.NotNil(t, item.Attendees)
		assert.Empty(t, item.Attendees)
		assert.Contains(t, item.ForceSendFields, "Attendees")
	})

	t.Run("reminders override defaults", func(t *testing.T) {
		reminders := []Reminder{{Minutes: 0}, {Method: ReminderEmail, Minutes: 60}}
		item := toGooglePatch(Patch{Reminders: &reminders}, "UTC")
		require.NotNil(t, item.Reminders)
		assert.False(t, item.Reminders.UseDefault)
		require.Len(t, item.Reminders.Overrides, 2)
		assert.Equal(t, ReminderPopup, item.Reminders.Overrides[0].Method)
		assert.Equal(t, int64(60), item.Reminders.Overrides[1].Minutes)
	})
}

func TestFromFreeBusy(t *testing.T) {
	result := &gcal.FreeBusyResponse{
		Calendars: map[string]gcal.FreeBusyCalendar{
			"alice@example.com": {Busy: []*gcal.TimePeriod{
				{Start: "2026-03-02T01:00:00Z", End: "2026-03-02T02:00:00Z"},
				{Start: "bad", End: "2026-03-02T02:00:00Z"},
			}},
			"hidden@example.com": {Errors: []*gcal.Error{{Reason: "notFound"}}},
		},
	}

	busy := fromFreeBusy(result)
	require.Contains(t, busy, "alice@example.com")
	assert.Len(t, busy["alice@example.com"], 1)
	assert.NotContains(t, busy, "hidden@example.com")
}
