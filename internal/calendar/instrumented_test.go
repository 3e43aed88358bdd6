package calendar_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/apperrors"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/calendar/calendartest"
	"github.com/teemow/calmate/internal/instrumentation"
)

func TestInstrumentedGateway_PassesThrough(t *testing.T) {
	fake := calendartest.New(time.UTC)
	start := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	id := fake.AddTimed("定例", start, start.Add(time.Hour))

	gw := calendar.Instrument(fake, instrumentation.BackendMemory, nil, nil)
	assert.Same(t, fake, gw.Unwrap())

	events, err := gw.GetEvents(context.Background(), start.Add(-time.Hour), start.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)

	busy, err := gw.GetFreeBusy(context.Background(), start.Add(-time.Hour), start.Add(24*time.Hour), []string{"primary"})
	require.NoError(t, err)
	assert.Len(t, busy["primary"], 1)
}

func TestInstrumentedGateway_WrapsErrors(t *testing.T) {
	fake := calendartest.New(time.UTC)
	fake.FailOn(calendartest.OpDeleteEvent, "evt-9")

	gw := calendar.Instrument(fake, instrumentation.BackendMemory, nil, nil)
	err := gw.DeleteEvent(context.Background(), "evt-9")
	require.Error(t, err)
	assert.True(t, apperrors.IsGateway(err))
	assert.True(t, errors.Is(err, calendartest.ErrInjected))

	var gwErr *apperrors.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, instrumentation.OperationDeleteEvent, gwErr.Op)
}

func TestInstrumentedGateway_LogsIdentityWithoutEmail(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fake := calendartest.New(time.UTC)

	gw := calendar.Instrument(fake, instrumentation.BackendMemory, nil, logger)
	identity, err := gw.GetCallerIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", identity.Email)

	raw := buf.String()
	assert.NotContains(t, raw, "me@example.com")

	var line map[string]any
	require.NoError(t, json.NewDecoder(strings.NewReader(raw)).Decode(&line))
	assert.Equal(t, "resolved caller identity", line["msg"])
	assert.Equal(t, "example.com", line["user_domain"])
	assert.Contains(t, line["user_hash"], "user:")
}
