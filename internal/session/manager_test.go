package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/availability"
	"github.com/teemow/calmate/internal/calendar/calendartest"
	"github.com/teemow/calmate/internal/conversation"
	"github.com/teemow/calmate/internal/intent"
	"github.com/teemow/calmate/internal/response"
)

func testFactory(gw *calendartest.Gateway) Factory {
	return func(string) (*assistant.Dispatcher, error) {
		return assistant.New(assistant.Config{
			Gateway: gw,
			Engine:  availability.NewEngine(nil, time.UTC, nil, nil),
		})
	}
}

func TestManager_GetCreatesOncePerID(t *testing.T) {
	ctx := context.Background()
	created := 0
	factory := testFactory(calendartest.New(time.UTC))
	m := NewManager(func(id string) (*assistant.Dispatcher, error) {
		created++
		return factory(id)
	}, time.Hour, nil, nil)
	defer m.Stop()

	a, err := m.Get(ctx, "a")
	require.NoError(t, err)
	again, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	def, err := m.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultID, def.ID())

	assert.Equal(t, 2, created)
	assert.ElementsMatch(t, []string{"a", DefaultID}, m.List())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	gw := calendartest.New(time.UTC)
	m := NewManager(testFactory(gw), time.Hour, nil, nil)
	defer m.Stop()

	a, err := m.Get(ctx, "a")
	require.NoError(t, err)
	b, err := m.Get(ctx, "b")
	require.NoError(t, err)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	a.Do(func(d *assistant.Dispatcher) {
		res := d.Handle(ctx, intent.Create{Title: "1on1", Date: day, DurationMinutes: 30})
		require.Equal(t, response.TypeSuggestions, res.Type, res.Message)
	})

	b.Do(func(d *assistant.Dispatcher) {
		assert.Equal(t, conversation.StateIdle, d.Status().State)
	})
	a.Do(func(d *assistant.Dispatcher) {
		assert.Equal(t, conversation.StateAwaitingSelection, d.Status().State)
	})
}

func TestManager_FactoryError(t *testing.T) {
	m := NewManager(func(string) (*assistant.Dispatcher, error) {
		return nil, errors.New("no gateway")
	}, time.Hour, nil, nil)
	defer m.Stop()

	_, err := m.Get(context.Background(), "a")
	assert.ErrorContains(t, err, "no gateway")
	assert.Empty(t, m.List())
}

func TestManager_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testFactory(calendartest.New(time.UTC)), 30*time.Minute, nil, nil)
	defer m.Stop()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, err := m.Get(ctx, "old")
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	_, err = m.Get(ctx, "fresh")
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, m.CleanupExpired(ctx))
	assert.Equal(t, []string{"fresh"}, m.List())
}

func TestManager_TransportIDs(t *testing.T) {
	m := NewManager(testFactory(calendartest.New(time.UTC)), time.Hour, nil, nil)
	defer m.Stop()

	id := m.Generate()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	terminated, err := m.Validate(id)
	assert.NoError(t, err)
	assert.False(t, terminated)

	_, err = m.Validate("not-a-session")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = m.Get(context.Background(), id)
	require.NoError(t, err)
	notAllowed, err := m.Terminate(id)
	assert.NoError(t, err)
	assert.False(t, notAllowed)
	assert.Empty(t, m.List())
}

func TestSession_DoSerializes(t *testing.T) {
	m := NewManager(testFactory(calendartest.New(time.UTC)), time.Hour, nil, nil)
	defer m.Stop()

	s, err := m.Get(context.Background(), "a")
	require.NoError(t, err)

	var wg sync.WaitGroup
	active, maxActive := 0, 0
	var mu sync.Mutex
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(func(*assistant.Dispatcher) {
				mu.Lock()
				active++
				maxActive = max(maxActive, active)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestManager_StopTwice(t *testing.T) {
	m := NewManager(testFactory(calendartest.New(time.UTC)), time.Hour, nil, nil)
	m.Stop()
	assert.NotPanics(t, m.Stop)
}
