package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is an in-memory registry of live sessions. Sessions expire after a
// TTL measured from last use; nothing outlives the process.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// NewStore creates a store and starts its TTL sweeper
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Put registers a session and returns its id
func (s *Store) Put(sess *Session) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &entry{session: sess, lastUsed: time.Now()}
	s.mu.Unlock()
	return id
}

// Get resolves a session by id, refreshing its TTL
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = time.Now()
	return e.session, true
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the TTL sweeper
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) sweep() {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, e := range s.sessions {
				if now.Sub(e.lastUsed) > s.ttl {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
