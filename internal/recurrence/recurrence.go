// Package recurrence builds RFC 5545 recurrence rules for recurring events
// and previews their occurrences.
package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequencies accepted by Build.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
	Yearly  = "yearly"
)

const untilLayout = "20060102T150405Z"

var (
	// ErrUnknownFrequency is returned for a frequency other than daily,
	// weekly, monthly or yearly.
	ErrUnknownFrequency = errors.New("unknown frequency")
	// ErrInvalidRule is returned when the assembled rule does not parse.
	ErrInvalidRule = errors.New("invalid recurrence rule")
)

var frequencyLabels = map[string]string{
	Daily:   "毎日",
	Weekly:  "毎週",
	Monthly: "毎月",
	Yearly:  "毎年",
}

var weekdays = map[string]bool{
	"MO": true, "TU": true, "WE": true, "TH": true, "FR": true, "SA": true, "SU": true,
}

// Spec describes a recurrence.
type Spec struct {
	Frequency string
	// Interval is emitted only when greater than one.
	Interval int
	Count    int
	// Until is the last date the series may occur on. It is emitted as
	// midnight UTC of that date.
	Until time.Time
	// ByDay holds two-letter weekday codes, optionally prefixed with an
	// ordinal such as "1MO" or "-1FR".
	ByDay []string
}

// Build returns the rule as an "RRULE:" line.
//
// Example:
//
//	Build(Spec{Frequency: "weekly", Interval: 2, ByDay: []string{"MO", "WE"}})
//	// "RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE"
func Build(spec Spec) (string, error) {
	freq := strings.ToLower(strings.TrimSpace(spec.Frequency))
	if _, ok := frequencyLabels[freq]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, spec.Frequency)
	}
	if spec.Count < 0 {
		return "", fmt.Errorf("%w: negative count", ErrInvalidRule)
	}

	parts := []string{"FREQ=" + strings.ToUpper(freq)}
	if spec.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(spec.Interval))
	}
	if spec.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(spec.Count))
	}
	if !spec.Until.IsZero() {
		y, m, d := spec.Until.Date()
		parts = append(parts, "UNTIL="+time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(untilLayout))
	}
	if len(spec.ByDay) > 0 {
		days := make([]string, 0, len(spec.ByDay))
		for _, day := range spec.ByDay {
			day = strings.ToUpper(strings.TrimSpace(day))
			if len(day) < 2 || !weekdays[day[len(day)-2:]] {
				return "", fmt.Errorf("%w: weekday %q", ErrInvalidRule, day)
			}
			days = append(days, day)
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}

	rule := strings.Join(parts, ";")
	if _, err := rrule.StrToROption(rule); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return "RRULE:" + rule, nil
}

// FrequencyLabel returns the Japanese label of a frequency, or the input
// unchanged when it is unknown.
func FrequencyLabel(frequency string) string {
	if label, ok := frequencyLabels[strings.ToLower(frequency)]; ok {
		return label
	}
	return frequency
}

// Preview returns up to n occurrences of rule starting at start. rule may
// carry the "RRULE:" prefix.
func Preview(rule string, start time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	opt, err := rrule.StrToROption(strings.TrimPrefix(rule, "RRULE:"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	opt.Dtstart = start

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	var out []time.Time
	next := r.Iterator()
	for len(out) < n {
		t, ok := next()
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out, nil
}
