package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/calendar/calendartest"
	"github.com/teemow/calmate/internal/interval"
	"github.com/teemow/calmate/internal/response"
)

func TestParseRange(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 2, 15, 30, 0, 0, loc)

	tests := []struct {
		name      string
		from, to  string
		wantStart time.Time
		wantEnd   time.Time
		errMsg    string
	}{
		{
			name:      "defaults to today",
			wantStart: time.Date(2026, 3, 2, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 3, 3, 0, 0, 0, 0, loc),
		},
		{
			name:      "single day",
			from:      "2026-03-05",
			wantStart: time.Date(2026, 3, 5, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 3, 6, 0, 0, 0, 0, loc),
		},
		{
			name:      "inclusive range",
			from:      "2026-03-02",
			to:        "2026-03-06",
			wantStart: time.Date(2026, 3, 2, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, 3, 7, 0, 0, 0, 0, loc),
		},
		{name: "bad from", from: "3/2", errMsg: "invalid --from"},
		{name: "bad to", from: "2026-03-02", to: "friday", errMsg: "invalid --to"},
		{name: "reversed", from: "2026-03-06", to: "2026-03-02", errMsg: "before --from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := parseRange(tt.from, tt.to, now, loc)
			if tt.errMsg != "" {
				assert.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestPrintSlots(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSlots(&buf, nil, time.UTC))
	assert.Equal(t, "空き時間が見つかりませんでした。\n", buf.String())

	buf.Reset()
	slots := []availability.FreeSlot{{
		Interval: interval.Interval{
			Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
		DurationMinutes: 60,
	}}
	require.NoError(t, printSlots(&buf, slots, time.UTC))
	assert.Equal(t, "3月2日(月) 09:00-10:00 (60分)\n", buf.String())
}

func TestReadPayload(t *testing.T) {
	data, err := readPayload(`{"action":"query"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"query"}`, string(data))

	data, err = readPayload("-", strings.NewReader(`{"action":"other"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"action":"other"}`, string(data))

	_, err = readPayload("-", strings.NewReader("  \n"))
	assert.Error(t, err)
}

func TestRunIntent(t *testing.T) {
	gw := calendartest.New(time.UTC)
	d, err := assistant.New(assistant.Config{
		Gateway: gw,
		Engine:  availability.NewEngine(nil, time.UTC, nil, nil),
		Clock:   func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = runIntent(context.Background(), &buf, d,
		[]byte(`{"action":"create","title":"1on1","date":"2026-03-02","duration":30}`), []string{"1"})
	require.NoError(t, err)

	dec := json.NewDecoder(&buf)
	var first, second response.Result
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, response.TypeSuggestions, first.Type)
	assert.Equal(t, response.TypeSuccess, second.Type, second.Message)
	assert.Len(t, gw.Events(), 1)
	assert.ErrorIs(t, dec.Decode(&first), io.EOF)
}

func TestRunIntent_ErrorResultFails(t *testing.T) {
	gw := calendartest.New(time.UTC)
	gw.FailOn(calendartest.OpGetEvents, "")
	d, err := assistant.New(assistant.Config{
		Gateway: gw,
		Engine:  availability.NewEngine(nil, time.UTC, nil, nil),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = runIntent(context.Background(), &buf, d, []byte(`{"action":"query","date":"2026-03-02"}`), nil)
	assert.Error(t, err)
	assert.Contains(t, buf.String(), `"type": "error"`)
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3")
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "calmate version 1.2.3\n", buf.String())
}

func TestServeCmdFlags(t *testing.T) {
	cmd := newServeCmd()
	for flag, want := range map[string]string{
		"transport":         transportStdio,
		"http-addr":         ":8080",
		"metrics-enabled":   "true",
		"metrics-addr":      ":9090",
		"disable-streaming": "false",
	} {
		f := cmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, want, f.DefValue, flag)
	}
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe(serveOptions{transport: "sse"})
	assert.ErrorContains(t, err, "unsupported transport type")
}
