package assistant

import (
	"time"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/holiday"
)

const (
	timeLayout     = "15:04"
	dateTimeLayout = "2006-01-02 15:04"
	allDayLabel    = "終日"
)

var statusLabels = map[string]string{
	calendar.StatusAccepted:  "参加",
	calendar.StatusDeclined:  "不参加",
	calendar.StatusTentative: "仮承諾",
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// dateLabel prefers the date as the user wrote it.
func dateLabel(text string, day time.Time) string {
	if text != "" {
		return text
	}
	return day.Format(calendar.DateLayout)
}

// eventClock returns "HH:MM" for timed events and 終日 for all-day ones.
func eventClock(e calendar.Event, loc *time.Location) string {
	if e.IsAllDay() {
		return allDayLabel
	}
	return e.Start.In(loc).Format(timeLayout)
}

// shortWhen formats an event start as "3/2(月) 10:00".
func shortWhen(e calendar.Event, loc *time.Location) string {
	return holiday.FormatShortDate(e.Start.In(loc)) + " " + eventClock(e, loc)
}
