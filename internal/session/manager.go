// Package session gives every conversation its own assistant.
//
// A conversation's negotiation and undo ledger are never shared: the
// Manager creates one Dispatcher per session id on first use and drops it
// after a period of inactivity. Requests of one session are serialized by
// Session.Do.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
)

// DefaultID is used when a request carries no session id.
const DefaultID = "default"

// DefaultTimeout is how long an idle session is kept.
const DefaultTimeout = 30 * time.Minute

// ErrInvalidID is returned by Validate for ids the Manager did not issue.
var ErrInvalidID = errors.New("invalid session id")

// Factory builds the Dispatcher of a new session.
type Factory func(id string) (*assistant.Dispatcher, error)

// Session is one conversation.
type Session struct {
	id         string
	mu         sync.Mutex
	dispatcher *assistant.Dispatcher
	lastAccess time.Time
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Do runs fn with exclusive access to the session's Dispatcher.
func (s *Session) Do(fn func(d *assistant.Dispatcher)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.dispatcher)
}

// Manager owns the sessions of a server.
type Manager struct {
	sessions       map[string]*Session
	mu             sync.RWMutex
	factory        Factory
	cleanupTicker  *time.Ticker
	cleanupDone    chan bool
	stopOnce       sync.Once
	sessionTimeout time.Duration
	metrics        *instrumentation.Metrics
	logger         *slog.Logger
	now            func() time.Time
}

// NewManager creates a Manager and starts its cleanup loop. A timeout of
// zero uses DefaultTimeout.
func NewManager(factory Factory, timeout time.Duration, metrics *instrumentation.Metrics, logger *slog.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := min(timeout/2, 10*time.Minute)

	m := &Manager{
		sessions:       make(map[string]*Session),
		factory:        factory,
		cleanupTicker:  time.NewTicker(interval),
		cleanupDone:    make(chan bool),
		sessionTimeout: timeout,
		metrics:        metrics,
		logger:         logging.WithOperation(logger, "session"),
		now:            time.Now,
	}

	go m.cleanupLoop()

	return m
}

// Get returns the session for id, creating it on first use. An empty id
// selects DefaultID.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = DefaultID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.lastAccess = m.now()
		return s, nil
	}

	d, err := m.factory(id)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s := &Session{id: id, dispatcher: d, lastAccess: m.now()}
	m.sessions[id] = s
	m.metrics.IncrementActiveSessions(ctx)
	m.logger.Debug("Session started", logging.Session(id))
	return s, nil
}

// Remove ends a session.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.metrics.DecrementActiveSessions(ctx)
	}
}

// List returns the ids of all live sessions.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Generate returns a fresh session id for a transport.
func (m *Manager) Generate() string {
	return uuid.NewString()
}

// Validate reports whether id may be used. Only the default id and ids in
// UUID form are accepted; sessions are created lazily on first Get.
func (m *Manager) Validate(id string) (isTerminated bool, err error) {
	if id == DefaultID {
		return false, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return false, nil
}

// Terminate ends the session on a transport's request.
func (m *Manager) Terminate(id string) (isNotAllowed bool, err error) {
	m.Remove(context.Background(), id)
	return false, nil
}

// CleanupExpired removes sessions idle for longer than the timeout and
// returns how many were removed.
func (m *Manager) CleanupExpired(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expired := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastAccess) > m.sessionTimeout {
			delete(m.sessions, id)
			m.metrics.DecrementActiveSessions(ctx)
			expired++
		}
	}
	return expired
}

func (m *Manager) cleanupLoop() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.CleanupExpired(context.Background()); n > 0 {
				m.logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the cleanup loop. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}
