package audit

import (
	"context"
	"fmt"
	"sync"

	"claimsgate/pkg/domain"
	"claimsgate/pkg/platform/sentinel"
)

// InMemoryStore keeps audit entries in a mutex-guarded map. It favors
// clarity over performance; the check-and-insert is atomic under the write
// lock, which satisfies the same-key exclusivity the Store contract
// demands.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.ClaimID]AuditEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.ClaimID]AuditEntry)}
}

func (s *InMemoryStore) PutIfAbsent(_ context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.Record.ClaimID]; exists {
		return fmt.Errorf("audit entry for claim %s: %w", entry.Record.ClaimID, sentinel.ErrConflict)
	}
	s.entries[entry.Record.ClaimID] = entry
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, claimID domain.ClaimID) (AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[claimID]; ok {
		return entry, nil
	}
	return AuditEntry{}, fmt.Errorf("audit entry for claim %s: %w", claimID, sentinel.ErrNotFound)
}
