package scripts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.ID == "" {
		return fmt.Errorf("id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[strings.TrimSpace(id)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	out := make([]Record, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := normalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
