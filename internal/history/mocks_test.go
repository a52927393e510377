package history

import (
	"context"
	"errors"
	"sync"
)

// blockingStore holds every Append until release is closed.
type blockingStore struct {
	release chan struct{}
	started chan struct{}

	mu   sync.Mutex
	recs []Record
}

func newBlockingStore() *blockingStore {
	return &blockingStore{release: make(chan struct{}), started: make(chan struct{}, 16)}
}

func (s *blockingStore) Append(ctx context.Context, rec Record) error {
	s.started <- struct{}{}
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *blockingStore) List(context.Context, string, int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.recs...), nil
}

func (s *blockingStore) Get(context.Context, string, string) (Record, error) {
	return Record{}, ErrNotFound
}

type failingStore struct{}

func (failingStore) Append(context.Context, Record) error { return errors.New("disk on fire") }
func (failingStore) List(context.Context, string, int) ([]Record, error) {
	return nil, nil
}
func (failingStore) Get(context.Context, string, string) (Record, error) {
	return Record{}, ErrNotFound
}
