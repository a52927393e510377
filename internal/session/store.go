package session

import (
	"sync"
	"time"
)

type stateKey struct {
	ChatID int64
	UserID int64
}

type Store struct {
	mu sync.Mutex
	m  map[stateKey]*UIState
}

func NewStore() *Store {
	return &Store{m: make(map[stateKey]*UIState)}
}

// Get returns a copy of the state; image slices are shared, so callers
// build requests with UIState.Request rather than mutating them.
func (s *Store) Get(chatID, userID int64) UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getOrCreateLocked(chatID, userID)
}

func (s *Store) Update(chatID, userID int64, fn func(*UIState)) UIState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(chatID, userID)
	if fn != nil {
		fn(st)
	}
	st.UpdatedAt = time.Now()
	return *st
}

func (s *Store) Reset(chatID, userID int64) UIState {
	return s.Update(chatID, userID, func(st *UIState) {
		msgID := st.MessageID
		*st = defaultState()
		st.MessageID = msgID
	})
}

// Prune drops states idle for longer than ttl and returns how many went.
func (s *Store) Prune(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, st := range s.m {
		if st.UpdatedAt.Before(cutoff) {
			delete(s.m, k)
			n++
		}
	}
	return n
}

func (s *Store) getOrCreateLocked(chatID, userID int64) *UIState {
	key := stateKey{ChatID: chatID, UserID: userID}
	if st, ok := s.m[key]; ok {
		return st
	}
	st := defaultState()
	s.m[key] = &st
	return s.m[key]
}
