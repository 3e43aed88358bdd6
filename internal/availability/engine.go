// Package availability computes free slots from busy spans under
// business-hours and working-day constraints.
package availability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calmate/internal/holiday"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/interval"
	"github.com/teemow/calmate/internal/logging"
)

// Engine finds free slots. It holds no per-search state and is safe for
// concurrent use.
type Engine struct {
	policy   holiday.Policy
	location *time.Location
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// NewEngine creates an Engine. Days are evaluated in loc; a nil policy
// treats every day as a working day.
func NewEngine(policy holiday.Policy, loc *time.Location, metrics *instrumentation.Metrics, logger *slog.Logger) *Engine {
	if policy == nil {
		policy = holiday.AllDays{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		policy:   policy,
		location: loc,
		metrics:  metrics,
		logger:   logging.WithOperation(logger, "availability"),
	}
}

// Location returns the location days are evaluated in.
func (e *Engine) Location() *time.Location {
	return e.location
}

// FindFreeSlots returns the free slots of at least durationMinutes between
// start and end, in chronological order. Every calendar day from start's
// date up to end is searched; days failing the working-day policy are
// skipped when opts.ExcludeNonWorkingDays is set.
func (e *Engine) FindFreeSlots(ctx context.Context, start, end time.Time, durationMinutes int, opts Options, busy []BusySpan) ([]FreeSlot, error) {
	ctx, span := instrumentation.StartSpan(ctx, "availability.find_free_slots",
		attribute.Int(instrumentation.SpanAttrDuration, durationMinutes),
	)

	slots, err := e.search(start, end, durationMinutes, opts, busy)
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrSlotCount, len(slots)))
	instrumentation.EndSpan(span, err)
	if err == nil {
		e.metrics.RecordFreeSlots(ctx, len(slots))
	}
	return slots, err
}

// FindFreeSlotsAcrossCalendars is FindFreeSlots over the union of the busy
// spans of the primary calendar and every calendar in calendarIDs. A slot
// is returned only when it is free on all of them. Calendars without an
// entry in busyByCalendar are treated as free.
func (e *Engine) FindFreeSlotsAcrossCalendars(ctx context.Context, start, end time.Time, durationMinutes int, calendarIDs []string, opts Options, busyByCalendar map[string][]BusySpan) ([]FreeSlot, error) {
	ctx, span := instrumentation.StartSpan(ctx, "availability.find_free_slots_across_calendars",
		attribute.Int(instrumentation.SpanAttrDuration, durationMinutes),
		attribute.Int(instrumentation.SpanAttrCalendars, len(calendarIDs)+1),
	)

	seen := make(map[string]bool, len(calendarIDs)+1)
	var combined []BusySpan
	for _, id := range append([]string{PrimaryCalendarID}, calendarIDs...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		combined = append(combined, busyByCalendar[id]...)
	}

	slots, err := e.search(start, end, durationMinutes, opts, combined)
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrSlotCount, len(slots)))
	instrumentation.EndSpan(span, err)
	if err == nil {
		e.metrics.RecordFreeSlots(ctx, len(slots))
	}
	return slots, err
}

func (e *Engine) search(start, end time.Time, durationMinutes int, opts Options, busy []BusySpan) ([]FreeSlot, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	timed := make([]interval.Interval, 0, len(busy))
	for _, b := range busy {
		if b.AllDay || !b.Valid() {
			continue
		}
		timed = append(timed, b.Interval)
	}
	timed = interval.Merge(timed)

	duration := time.Duration(durationMinutes) * time.Minute
	var slots []FreeSlot
	days := 0

	for day := startOfDay(start.In(e.location)); day.Before(end); day = day.AddDate(0, 0, 1) {
		if opts.ExcludeNonWorkingDays && !e.policy.IsWorkingDay(day) {
			continue
		}
		days++

		y, m, d := day.Date()
		hours := interval.Interval{
			Start: time.Date(y, m, d, opts.BusinessHoursStart, 0, 0, 0, e.location),
			End:   time.Date(y, m, d, opts.BusinessHoursEnd, 0, 0, 0, e.location),
		}
		// Partial first and last days only search inside [start, end).
		window, ok := interval.Intersect(hours, interval.Interval{Start: start, End: end})
		if !ok {
			continue
		}
		slots = append(slots, gaps(window, interval.Clip(timed, window), duration)...)
	}

	e.logger.Debug("free slot search finished",
		slog.Int("days", days),
		slog.Int("busy_spans", len(timed)),
		slog.Int("slots", len(slots)),
	)
	return slots, nil
}

// gaps walks merged busy spans inside window and emits every gap of at
// least duration.
func gaps(window interval.Interval, busy []interval.Interval, duration time.Duration) []FreeSlot {
	var out []FreeSlot
	candidate := window.Start
	for _, b := range busy {
		if b.Start.Sub(candidate) >= duration {
			out = append(out, newFreeSlot(candidate, b.Start))
		}
		if b.End.After(candidate) {
			candidate = b.End
		}
	}
	if window.End.Sub(candidate) >= duration {
		out = append(out, newFreeSlot(candidate, window.End))
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
