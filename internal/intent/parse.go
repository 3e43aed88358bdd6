package intent

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DateLayout is the date format the classifier emits.
const DateLayout = "2006-01-02"

var (
	errEmptyDate  = errors.New("empty date")
	errEmptyClock = errors.New("empty time")
)

var dateLayouts = []string{DateLayout, "2006/01/02", "2006/1/2", "2006-1-2"}

var clockPattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2})|時(?:(\d{1,2})分)?|時半)$`)

// ParseDate parses a date written as YYYY-MM-DD (or with slashes), or a
// full RFC 3339 timestamp, and returns midnight of that day in loc.
// Full-width digits are accepted.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return time.Time{}, errEmptyDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseClock parses "HH:MM", "H時", "H時M分" or "H時半".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return Clock{}, errEmptyClock
	}
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return Clock{}, fmt.Errorf("unrecognized time %q", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	switch {
	case m[2] != "":
		minute, _ = strconv.Atoi(m[2])
	case m[3] != "":
		minute, _ = strconv.Atoi(m[3])
	case strings.HasSuffix(s, "半"):
		minute = 30
	}
	if hour > 23 || minute > 59 {
		return Clock{}, fmt.Errorf("time out of range %q", s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
