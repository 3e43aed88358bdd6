package interval

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func iv(h1, m1, h2, m2 int) Interval {
	return Interval{Start: at(h1, m1), End: at(h2, m2)}
}

func TestNew(t *testing.T) {
	_, err := New(at(10, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrEmptyInterval)

	_, err = New(at(11, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrEmptyInterval)

	got, err := New(at(10, 0), at(11, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, got.Duration())
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", iv(9, 0, 10, 0), iv(11, 0, 12, 0), false},
		{"back to back", iv(9, 0, 10, 0), iv(10, 0, 11, 0), false},
		{"partial", iv(9, 0, 10, 30), iv(10, 0, 11, 0), true},
		{"nested", iv(9, 0, 12, 0), iv(10, 0, 11, 0), true},
		{"identical", iv(9, 0, 10, 0), iv(9, 0, 10, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a))
		})
	}
}

func TestIntersect(t *testing.T) {
	got, ok := Intersect(iv(9, 0, 11, 0), iv(10, 0, 12, 0))
	require.True(t, ok)
	assert.Equal(t, iv(10, 0, 11, 0), got)

	_, ok = Intersect(iv(9, 0, 10, 0), iv(10, 0, 11, 0))
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{"empty", nil, nil},
		{"single", []Interval{iv(9, 0, 10, 0)}, []Interval{iv(9, 0, 10, 0)}},
		{
			name: "unsorted overlapping",
			in:   []Interval{iv(11, 0, 12, 0), iv(9, 0, 10, 30), iv(10, 0, 10, 45)},
			want: []Interval{iv(9, 0, 10, 45), iv(11, 0, 12, 0)},
		},
		{
			name: "back to back merge",
			in:   []Interval{iv(9, 0, 10, 0), iv(10, 0, 11, 0)},
			want: []Interval{iv(9, 0, 11, 0)},
		},
		{
			name: "contained",
			in:   []Interval{iv(9, 0, 17, 0), iv(10, 0, 11, 0)},
			want: []Interval{iv(9, 0, 17, 0)},
		},
		{
			name: "invalid dropped",
			in:   []Interval{iv(10, 0, 9, 0), iv(13, 0, 14, 0)},
			want: []Interval{iv(13, 0, 14, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.in))
		})
	}
}

func TestMerge_IdempotentAndOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		var spans []Interval
		for i := 0; i < 8; i++ {
			start := rng.Intn(16 * 4)
			length := 1 + rng.Intn(8)
			spans = append(spans, Interval{
				Start: base.Add(time.Duration(start) * 15 * time.Minute),
				End:   base.Add(time.Duration(start+length) * 15 * time.Minute),
			})
		}

		merged := Merge(spans)
		assert.Equal(t, merged, Merge(merged), "merge must be idempotent")

		shuffled := append([]Interval(nil), spans...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, merged, Merge(shuffled), "merge must not depend on input order")

		for i := 1; i < len(merged); i++ {
			assert.True(t, merged[i-1].End.Before(merged[i].Start), "merged intervals must be separated")
		}
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	in := []Interval{iv(11, 0, 12, 0), iv(9, 0, 10, 0)}
	_ = Merge(in)
	assert.Equal(t, iv(11, 0, 12, 0), in[0])
}

func TestSubtract(t *testing.T) {
	window := iv(9, 0, 18, 0)

	assert.Equal(t, []Interval{window}, Subtract(window, nil))

	got := Subtract(window, []Interval{iv(10, 0, 11, 0), iv(8, 0, 9, 30), iv(17, 0, 19, 0)})
	assert.Equal(t, []Interval{iv(9, 30, 10, 0), iv(11, 0, 17, 0)}, got)

	assert.Empty(t, Subtract(window, []Interval{iv(8, 0, 19, 0)}))
}

func TestClip(t *testing.T) {
	got := Clip([]Interval{iv(7, 0, 8, 0), iv(8, 30, 9, 30), iv(17, 30, 20, 0)}, iv(9, 0, 18, 0))
	assert.Equal(t, []Interval{iv(9, 0, 9, 30), iv(17, 30, 18, 0)}, got)
}
