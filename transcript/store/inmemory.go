package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/transcript"
)

// InMemoryStore implements transcript.Store using in-memory storage. It is
// intended for tests and ephemeral deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*transcript.Record
}

// NewInMemoryStore creates a new in-memory transcript store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*transcript.Record),
	}
}

// Save stores a copy of the record and returns a memory:// location.
func (s *InMemoryStore) Save(ctx context.Context, record *transcript.Record) (string, error) {
	if record == nil || record.ID == "" {
		return "", fmt.Errorf("transcript record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *record
	cloned.Turns = append([]transcript.Turn(nil), record.Turns...)
	s.records[record.ID] = &cloned
	return "memory://" + record.ID, nil
}

// Load retrieves a stored record.
func (s *InMemoryStore) Load(ctx context.Context, id string) (*transcript.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cloned := *record
	cloned.Turns = append([]transcript.Turn(nil), record.Turns...)
	return &cloned, nil
}

// Count returns the number of stored records.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
