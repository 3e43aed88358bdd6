// Package interval provides half-open time ranges and the set operations
// used by availability search.
package interval

import (
	"errors"
	"sort"
	"time"
)

// ErrEmptyInterval is returned when an interval would not satisfy Start < End.
var ErrEmptyInterval = errors.New("interval start must be before end")

// Interval is a time range [Start, End). Valid intervals satisfy Start < End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New returns the interval [start, end) or ErrEmptyInterval.
func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, ErrEmptyInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Valid reports whether Start < End.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two intervals share any instant.
// Back-to-back intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether t lies in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b Interval) bool {
	return a.Overlaps(b)
}

// Intersect returns the common part of a and b.
// The boolean is false when they do not overlap.
func Intersect(a, b Interval) (Interval, bool) {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Merge sorts the intervals by start and folds overlapping and touching
// ones together. Two intervals merge when the later one starts at or before
// the end of the earlier one, so back-to-back intervals become one.
// The input slice is not modified.
func Merge(list []Interval) []Interval {
	if len(list) == 0 {
		return nil
	}

	sorted := make([]Interval, 0, len(list))
	for _, iv := range list {
		if iv.Valid() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Start.Equal(sorted[b].Start) {
			return sorted[a].End.Before(sorted[b].End)
		}
		return sorted[a].Start.Before(sorted[b].Start)
	})

	merged := []Interval{sorted[0]}
	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !cur.Start.After(last.End) {
			if cur.End.After(last.End) {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

// Clip intersects every interval with window and drops the ones outside it.
func Clip(list []Interval, window Interval) []Interval {
	var out []Interval
	for _, iv := range list {
		if clipped, ok := Intersect(iv, window); ok {
			out = append(out, clipped)
		}
	}
	return out
}

// Subtract returns the parts of window not covered by busy, in order.
func Subtract(window Interval, busy []Interval) []Interval {
	if !window.Valid() {
		return nil
	}

	var free []Interval
	cursor := window.Start
	for _, b := range Merge(Clip(busy, window)) {
		if cursor.Before(b.Start) {
			free = append(free, Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}
