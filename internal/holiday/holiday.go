// Package holiday decides whether a calendar date counts as a working day.
//
// The built-in Japan calendar knows the national holidays of 2026 and 2027.
// For other years it falls back to the fixed-date national holidays, which
// misses the movable ones (Coming of Age Day, equinoxes, Happy Monday
// holidays and substitute holidays). Callers with authoritative data should
// load it with SetYear.
package holiday

import (
	"fmt"
	"sync"
	"time"
)

// DateLayout is the layout of holiday dates in tables and configuration.
const DateLayout = "2006-01-02"

// Policy reports whether a date is a working day.
type Policy interface {
	IsWorkingDay(date time.Time) bool
}

// Info describes a single date.
type Info struct {
	Holiday bool
	Weekend bool
	// DayName is the single-character Japanese weekday name.
	DayName string
}

var dayNames = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// DayName returns the Japanese weekday name (日..土) for the date.
func DayName(date time.Time) string {
	return dayNames[date.Weekday()]
}

type monthDay struct {
	month time.Month
	day   int
}

// fixedHolidays are the non-movable national holidays used for years
// without a table.
var fixedHolidays = []monthDay{
	{time.January, 1},
	{time.February, 11},
	{time.February, 23},
	{time.April, 29},
	{time.May, 3},
	{time.May, 4},
	{time.May, 5},
	{time.August, 11},
	{time.November, 3},
	{time.November, 23},
}

var builtinTables = map[int][]string{
	2026: {
		"2026-01-01", "2026-01-12", "2026-02-11", "2026-02-23", "2026-03-20",
		"2026-04-29", "2026-05-03", "2026-05-04", "2026-05-05", "2026-05-06",
		"2026-07-20", "2026-08-11", "2026-09-21", "2026-09-22", "2026-10-12",
		"2026-11-03", "2026-11-23",
	},
	2027: {
		"2027-01-01", "2027-01-11", "2027-02-11", "2027-02-23", "2027-03-20",
		"2027-04-29", "2027-05-03", "2027-05-04", "2027-05-05", "2027-07-19",
		"2027-08-11", "2027-09-20", "2027-09-23", "2027-10-11", "2027-11-03",
		"2027-11-23",
	},
}

// Calendar is a table-driven Policy. It is safe for concurrent use.
type Calendar struct {
	mu     sync.RWMutex
	tables map[int]map[string]struct{}
}

// NewJapan returns a Calendar preloaded with the Japanese national holidays.
func NewJapan() *Calendar {
	c := &Calendar{tables: make(map[int]map[string]struct{})}
	for year, dates := range builtinTables {
		// Built-in tables are known to be well formed.
		_ = c.SetYear(year, dates)
	}
	return c
}

// SetYear replaces the holiday table for year. Every date must use
// DateLayout and fall within year.
func (c *Calendar) SetYear(year int, dates []string) error {
	table := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		parsed, err := time.Parse(DateLayout, d)
		if err != nil {
			return fmt.Errorf("invalid holiday date %q: %w", d, err)
		}
		if parsed.Year() != year {
			return fmt.Errorf("holiday date %q is not in year %d", d, year)
		}
		table[d] = struct{}{}
	}

	c.mu.Lock()
	c.tables[year] = table
	c.mu.Unlock()
	return nil
}

// IsHoliday reports whether date is a national holiday. Only the calendar
// date of the given time is considered, in the time's own location.
func (c *Calendar) IsHoliday(date time.Time) bool {
	c.mu.RLock()
	table, ok := c.tables[date.Year()]
	c.mu.RUnlock()

	if ok {
		_, found := table[date.Format(DateLayout)]
		return found
	}

	for _, md := range fixedHolidays {
		if date.Month() == md.month && date.Day() == md.day {
			return true
		}
	}
	return false
}

// IsWeekend reports whether date is a Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsWorkingDay reports whether date is neither a weekend day nor a holiday.
func (c *Calendar) IsWorkingDay(date time.Time) bool {
	return !IsWeekend(date) && !c.IsHoliday(date)
}

// Info returns holiday, weekend and weekday-name information for date.
func (c *Calendar) Info(date time.Time) Info {
	return Info{
		Holiday: c.IsHoliday(date),
		Weekend: IsWeekend(date),
		DayName: DayName(date),
	}
}

// AllDays is a Policy under which every date is a working day.
type AllDays struct{}

// IsWorkingDay always returns true.
func (AllDays) IsWorkingDay(time.Time) bool { return true }
