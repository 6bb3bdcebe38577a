// Package session keeps the live view instances of mounted pages, keyed by
// id, and expires the ones a browser stopped touching.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kb-dashboard/backend/internal/logger"
	"github.com/kb-dashboard/backend/internal/metrics"
)

// DefaultMaxSessions limits concurrent views of one kind.
const DefaultMaxSessions = 200

// DefaultIdleTimeout is how long an untouched view is kept.
const DefaultIdleTimeout = 30 * time.Minute

// Closer is implemented by views that hold resources beyond memory.
type Closer interface {
	Close()
}

type state[T any] struct {
	value        T
	createdAt    time.Time
	lastAccessed time.Time
}

// Manager is a registry of views of one kind.
type Manager[T any] struct {
	kind        string
	sessions    map[string]*state[T]
	mu          sync.RWMutex
	maxSessions int
	idleTimeout time.Duration
	now         func() time.Time
}

// NewManager creates a registry. kind labels log lines and metrics.
func NewManager[T any](kind string, maxSessions int, idleTimeout time.Duration) *Manager[T] {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Manager[T]{
		kind:        kind,
		sessions:    make(map[string]*state[T]),
		maxSessions: maxSessions,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Create registers a new view built by build under a fresh id. At capacity
// the least recently used view is evicted first.
func (m *Manager[T]) Create(build func(id string) T) (string, T) {
	id := uuid.New().String()
	value := build(id)
	now := m.now()

	m.mu.Lock()
	var evicted []T
	for len(m.sessions) >= m.maxSessions {
		v, ok := m.evictOldestLocked()
		if !ok {
			break
		}
		evicted = append(evicted, v)
	}
	m.sessions[id] = &state[T]{value: value, createdAt: now, lastAccessed: now}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, v := range evicted {
		closeValue(v)
	}
	metrics.SetActiveViews(m.kind, n)
	return id, value
}

func (m *Manager[T]) evictOldestLocked() (T, bool) {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range m.sessions {
		if oldestID == "" || s.lastAccessed.Before(oldest) {
			oldestID, oldest = id, s.lastAccessed
		}
	}
	if oldestID == "" {
		var zero T
		return zero, false
	}
	v := m.sessions[oldestID].value
	delete(m.sessions, oldestID)
	logger.Debug("Evicted view at capacity", "kind", m.kind, "id", oldestID)
	return v, true
}

// Get returns a view and marks it as accessed.
func (m *Manager[T]) Get(id string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		var zero T
		return zero, false
	}
	s.lastAccessed = m.now()
	return s.value, true
}

// Remove drops a view. It reports whether the id was registered.
func (m *Manager[T]) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		closeValue(s.value)
		metrics.SetActiveViews(m.kind, n)
	}
	return ok
}

// Len returns the number of registered views.
func (m *Manager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes views not accessed within the idle timeout and
// returns how many were removed.
func (m *Manager[T]) CleanupOldSessions() int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var expired []T
	for id, s := range m.sessions {
		if s.lastAccessed.Before(cutoff) {
			expired = append(expired, s.value)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, v := range expired {
		closeValue(v)
	}
	if len(expired) > 0 {
		logger.Info("Cleaned up idle views", "kind", m.kind, "removed", len(expired), "remaining", n)
	}
	metrics.SetActiveViews(m.kind, n)
	return len(expired)
}

// StartCleanup runs CleanupOldSessions every interval until ctx is done.
func (m *Manager[T]) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupOldSessions()
			}
		}
	}()
}

func closeValue[T any](v T) {
	if c, ok := any(v).(Closer); ok {
		c.Close()
	}
}
