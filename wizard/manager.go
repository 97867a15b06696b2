package wizard

import (
	"context"
	"errors"
	"siena/availability"
	"siena/models"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("wizard session not found")

const sessionTTL = 2 * time.Hour

// Manager owns the open wizard sessions. Each session is independent; no
// draft state crosses unit instances.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// fetchBlocked is swappable so tests run without feeds.
	fetchBlocked func(ctx context.Context, unit *models.Unit) availability.BlockedDateSet
}

func NewManager() *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		fetchBlocked: availability.BlockedFor,
	}
}

// Open creates a fresh session for a unit: new draft, SelectingDates, empty
// fields. The availability fetch happens once, in the background; a session
// closed before it lands drops the result.
func (m *Manager) Open(unit models.Unit) *Session {
	s := newSession(unit)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if len(unit.ICalURLs) > 0 {
		go func() {
			fetchCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.setBlocked(m.fetchBlocked(fetchCtx, &unit))
		}()
	}
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close disposes a session. It stays in the map until the janitor sweeps it
// so that a payment callback racing the cancellation is recognised and
// reported as a late-capture anomaly instead of a plain unknown session.
func (m *Manager) Close(id string) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// StartJanitor sweeps idle sessions until ctx is cancelled. Abandoned carts
// should not pile up for the lifetime of the process.
func (m *Manager) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-sessionTTL)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.updatedAt.Before(cutoff)
		s.mu.Unlock()
		if idle {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
}
