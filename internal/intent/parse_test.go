package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, tokyo)
	for _, in := range []string{"2026-03-02", "2026/03/02", "2026/3/2", "２０２６-０３-０２", "2026-03-01T20:00:00Z"} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in, tokyo)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseDate("", tokyo)
	assert.Error(t, err)
	_, err = ParseDate("明日", tokyo)
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"14:00", "14:00"},
		{"9:30", "09:30"},
		{"１４：１５", "14:15"},
		{"15時", "15:00"},
		{"15時45分", "15:45"},
		{"10時半", "10:30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	for _, bad := range []string{"", "24:00", "10:75", "noon"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClock_On(t *testing.T) {
	c := Clock{Hour: 14, Minute: 30}
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, tokyo)
	assert.Equal(t, time.Date(2026, 3, 2, 14, 30, 0, 0, tokyo), c.On(day, tokyo))
}
