package history

import (
	"context"
	"sync"
)

const DefaultMaxRecords = 50

// MemoryStore keeps the newest max records per user in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	limit  int
	byUser map[string][]Record
}

func NewMemoryStore(maxRecords int) *MemoryStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &MemoryStore{limit: maxRecords, byUser: make(map[string][]Record)}
}

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append([]Record{rec}, s.byUser[rec.UserID]...)
	if len(list) > s.limit {
		list = list[:s.limit]
	}
	s.byUser[rec.UserID] = list
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byUser[userID]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return append([]Record(nil), list...), nil
}

func (s *MemoryStore) Get(_ context.Context, userID, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.byUser[userID] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}
