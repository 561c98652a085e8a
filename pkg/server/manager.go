package server

import (
	"log/slog"
	"sort"
	"sync"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
)

// SessionManager tracks open live sessions.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	closed      bool
	logger      *slog.Logger
}

// NewSessionManager creates a manager. maxSessions <= 0 means no limit.
func NewSessionManager(maxSessions int, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// Add registers a session. It fails when the limit is reached or the
// manager is shutting down.
func (m *SessionManager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return perrors.Newf(perrors.CategoryTransport, "server is shutting down")
	}
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return perrors.Newf(perrors.CategoryTransport, "session limit %d reached", m.maxSessions)
	}
	m.sessions[s.ID] = s
	return nil
}

// Remove unregisters a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Get returns a session by ID.
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the open session IDs in sorted order.
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Shutdown closes every session and rejects new ones.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	if len(sessions) > 0 {
		m.logger.Info("sessions closed", "count", len(sessions))
	}
}
