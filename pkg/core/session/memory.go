package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

// Get returns a copy; callers must Save to persist changes.
func (m *MemoryStore) Get(_ context.Context, chatID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ChatID] = *s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}

// Guard enforces one in-flight projection per chat.
type Guard struct {
	mu       sync.Mutex
	inFlight map[int64]struct{}
}

func NewGuard() *Guard {
	return &Guard{inFlight: make(map[int64]struct{})}
}

// Acquire marks chatID busy. It returns ErrBusy if a run is already in
// flight; otherwise the returned release func must be called when done.
func (g *Guard) Acquire(chatID int64) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[chatID]; busy {
		return nil, ErrBusy
	}
	g.inFlight[chatID] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.inFlight, chatID)
		g.mu.Unlock()
	}, nil
}
