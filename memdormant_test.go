package duotier

import (
	"context"
	"sync"
	"time"
)

// memDormantStore is a test-only DormantStore backed by a plain map,
// used so the suite never touches the filesystem. It implements the
// same TTL-filter-on-read contract as fileDormantStore.
type memDormantStore[V any] struct {
	mu         sync.Mutex
	records    map[string]*EntryRecord[V]
	dormantTTL time.Duration
	created    bool
}

func newMemDormantStore[V any](dormantTTL time.Duration) *memDormantStore[V] {
	return &memDormantStore[V]{
		records:    make(map[string]*EntryRecord[V]),
		dormantTTL: dormantTTL,
	}
}

func (s *memDormantStore[V]) Read(ctx context.Context) (map[string]*EntryRecord[V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	out := make(map[string]*EntryRecord[V], len(s.records))
	for k, rec := range s.records {
		if s.dormantTTL > 0 && now.Sub(rec.createdAt) >= s.dormantTTL {
			continue
		}
		out[k] = rec.clone()
	}
	return out, nil
}

func (s *memDormantStore[V]) Write(ctx context.Context, records map[string]*EntryRecord[V]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]*EntryRecord[V], len(records))
	for k, rec := range records {
		cp[k] = rec.clone()
	}
	s.records = cp
	return nil
}

func (s *memDormantStore[V]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*EntryRecord[V])
	return nil
}

func (s *memDormantStore[V]) Exists() bool {
	return true
}

func (s *memDormantStore[V]) IsEmpty(ctx context.Context) bool {
	records, _ := s.Read(ctx)
	return len(records) == 0
}

func (s *memDormantStore[V]) IsAccessible() bool {
	return true
}

func (s *memDormantStore[V]) EnsureExists() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	return nil
}

func (s *memDormantStore[V]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
