package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{"daily", Spec{Frequency: "daily"}, "RRULE:FREQ=DAILY"},
		{"interval of one is omitted", Spec{Frequency: "weekly", Interval: 1}, "RRULE:FREQ=WEEKLY"},
		{"interval and weekdays", Spec{Frequency: "Weekly", Interval: 2, ByDay: []string{"mo", "WE"}}, "RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE"},
		{"count", Spec{Frequency: "monthly", Count: 6}, "RRULE:FREQ=MONTHLY;COUNT=6"},
		{
			"until is midnight utc",
			Spec{Frequency: "yearly", Until: time.Date(2026, 12, 31, 15, 0, 0, 0, time.FixedZone("JST", 9*3600))},
			"RRULE:FREQ=YEARLY;UNTIL=20261231T000000Z",
		},
		{"ordinal weekday", Spec{Frequency: "monthly", ByDay: []string{"-1FR"}}, "RRULE:FREQ=MONTHLY;BYDAY=-1FR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(Spec{Frequency: "hourly"})
	assert.ErrorIs(t, err, ErrUnknownFrequency)

	_, err = Build(Spec{Frequency: "weekly", ByDay: []string{"XX"}})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = Build(Spec{Frequency: "daily", Count: -1})
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestFrequencyLabel(t *testing.T) {
	assert.Equal(t, "毎週", FrequencyLabel("weekly"))
	assert.Equal(t, "毎日", FrequencyLabel("DAILY"))
	assert.Equal(t, "hourly", FrequencyLabel("hourly"))
}

func TestPreview(t *testing.T) {
	// 2026-03-02 is a Monday.
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	got, err := Preview("RRULE:FREQ=WEEKLY;BYDAY=MO,WE", start, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, start, got[0])
	assert.Equal(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), got[1])
	assert.Equal(t, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), got[2])

	got, err = Preview("FREQ=DAILY;COUNT=2", start, 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = Preview("FREQ=SOMETIMES", start, 1)
	assert.ErrorIs(t, err, ErrInvalidRule)
}
