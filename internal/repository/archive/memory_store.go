package archive

import (
	"context"
	"fmt"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, runID string, content []byte) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	runID, err := checkRunID(runID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[objectKey(runID)] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	runID, err := checkRunID(runID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[objectKey(runID)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}
