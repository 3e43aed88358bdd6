package availability

import (
	"errors"
	"time"

	"github.com/teemow/calmate/internal/interval"
)

// Errors returned for invalid search parameters.
var (
	ErrInvalidDuration      = errors.New("duration must be positive")
	ErrInvalidRange         = errors.New("search range start must be before end")
	ErrInvalidBusinessHours = errors.New("business hours must satisfy 0 <= start < end <= 24")
)

// PrimaryCalendarID is the calendar id of the caller's own calendar.
const PrimaryCalendarID = "primary"

// BusySpan is a busy period on one calendar.
type BusySpan struct {
	interval.Interval
	CalendarID string
	// AllDay marks spans from events without a time component.
	// They never block availability.
	AllDay bool
}

// FreeSlot is a free period at least as long as the requested duration.
type FreeSlot struct {
	interval.Interval
	DurationMinutes int
}

func newFreeSlot(start, end time.Time) FreeSlot {
	return FreeSlot{
		Interval:        interval.Interval{Start: start, End: end},
		DurationMinutes: int(end.Sub(start) / time.Minute),
	}
}

// Options constrain a search.
type Options struct {
	// BusinessHoursStart and BusinessHoursEnd are hours of the day in the
	// engine's location, e.g. 9 and 18.
	BusinessHoursStart int
	BusinessHoursEnd   int
	// ExcludeNonWorkingDays skips weekends and holidays.
	ExcludeNonWorkingDays bool
}

// DefaultOptions returns 09:00-18:00 on working days only.
func DefaultOptions() Options {
	return Options{
		BusinessHoursStart:    9,
		BusinessHoursEnd:      18,
		ExcludeNonWorkingDays: true,
	}
}

func (o Options) validate() error {
	if o.BusinessHoursStart < 0 || o.BusinessHoursEnd > 24 || o.BusinessHoursStart >= o.BusinessHoursEnd {
		return ErrInvalidBusinessHours
	}
	return nil
}
