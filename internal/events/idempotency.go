package events

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore remembers the result of a processed operation by key.
// PutIfAbsent is atomic: when two callers race on the same key, exactly one
// inserts and the other receives the stored value.
type IdempotencyStore interface {
	// PutIfAbsent stores value under key unless the key exists. Returns
	// the value now stored and whether this call inserted it.
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (stored []byte, inserted bool, err error)
}

// MemoryIdempotencyStore is the single-process implementation.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	results map[string]memEntry
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{results: make(map[string]memEntry)}
}

func (s *MemoryIdempotencyStore) PutIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if entry, ok := s.results[key]; ok && (entry.expiresAt.IsZero() || entry.expiresAt.After(now)) {
		return entry.value, false, nil
	}
	entry := memEntry{value: append([]byte{}, value...)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	s.results[key] = entry
	return entry.value, true, nil
}
