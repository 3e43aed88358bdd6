package holiday

import (
	"fmt"
	"time"
)

// FormatMonthDay formats a date as "3月2日".
func FormatMonthDay(t time.Time) string {
	return fmt.Sprintf("%d月%d日", int(t.Month()), t.Day())
}

// FormatDate formats a date as "3月2日(月)".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s(%s)", FormatMonthDay(t), DayName(t))
}

// FormatShortDate formats a date as "3/2(月)".
func FormatShortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d(%s)", int(t.Month()), t.Day(), DayName(t))
}
