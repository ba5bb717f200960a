package session

import (
	"sync"
	"time"

	"scoregaps/domain/facts"

	"github.com/google/uuid"
)

// CookieName is the browser cookie carrying the session id
const CookieName = "scoregaps_session"

type entry struct {
	selection facts.Selection
	touched   time.Time
}

// Store keeps each browser session's current selection in memory.
// Sessions idle for longer than the TTL are forgotten.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*entry
	now      func() time.Time
}

// NewStore creates a session store
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Get returns the stored selection for id. ok is false for unknown or expired ids.
func (s *Store) Get(id string) (facts.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return facts.Selection{}, false
	}
	if s.expired(e) {
		delete(s.sessions, id)
		return facts.Selection{}, false
	}
	e.touched = s.now()
	return e.selection.Clone(), true
}

// Save stores sel under id, issuing a new id when id is empty or unknown
func (s *Store) Save(id string, sel facts.Selection) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	s.sessions[id] = &entry{selection: sel.Clone(), touched: s.now()}
	return id
}

// CleanupExpired drops idle sessions and returns how many were removed
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.touched) > s.ttl
}
