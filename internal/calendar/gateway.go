package calendar

import (
	"context"
	"slices"
	"time"

	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/interval"
)

// Gateway is the remote calendar service the assistant reads from and
// mutates. Implementations return plain errors; the instrumented decorator
// classifies them as gateway failures.
type Gateway interface {
	// GetEvents lists the events of the primary calendar overlapping
	// [start, end), expanded to single instances and ordered by start.
	GetEvents(ctx context.Context, start, end time.Time) ([]Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	CreateEvent(ctx context.Context, draft Draft) (*Event, error)
	UpdateEvent(ctx context.Context, id string, patch Patch) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
	// GetFreeBusy returns busy intervals per calendar id. Calendars the
	// service cannot see may be missing from the result.
	GetFreeBusy(ctx context.Context, start, end time.Time, calendarIDs []string) (map[string][]interval.Interval, error)
	// SearchEvents lists events in [start, end) matching keyword.
	SearchEvents(ctx context.Context, start, end time.Time, keyword string) ([]Event, error)
	GetCallerIdentity(ctx context.Context) (Identity, error)
}

// BusySpans converts events into busy spans of the primary calendar.
// All-day events are kept but flagged so the engine can ignore them, and
// cancelled events are dropped.
func BusySpans(events []Event) []availability.BusySpan {
	spans := make([]availability.BusySpan, 0, len(events))
	for _, e := range events {
		if e.Status == "cancelled" {
			continue
		}
		span := availability.BusySpan{CalendarID: availability.PrimaryCalendarID, AllDay: e.IsAllDay()}
		if !span.AllDay {
			span.Interval = interval.Interval{Start: e.Start.DateTime, End: e.End.DateTime}
		}
		spans = append(spans, span)
	}
	return spans
}

// FreeBusySpans converts a GetFreeBusy result into busy spans keyed by calendar.
func FreeBusySpans(busy map[string][]interval.Interval) map[string][]availability.BusySpan {
	out := make(map[string][]availability.BusySpan, len(busy))
	for id, intervals := range busy {
		spans := make([]availability.BusySpan, 0, len(intervals))
		for _, iv := range intervals {
			spans = append(spans, availability.BusySpan{Interval: iv, CalendarID: id})
		}
		out[id] = spans
	}
	return out
}

// sortEvents orders events by start, all-day events first on their date.
func sortEvents(events []Event, loc *time.Location) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return a.Start.In(loc).Compare(b.Start.In(loc))
	})
}
