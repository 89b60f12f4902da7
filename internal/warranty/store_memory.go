package warranty

import (
	"context"
	"fmt"
	"sync"

	"claimsgate/pkg/domain"
	"claimsgate/pkg/platform/sentinel"
)

// Store indexes warranties by asset. The index is a read model fed by
// external registration and claim events.
type Store interface {
	Register(ctx context.Context, record Record) error
	AddClaim(ctx context.Context, warrantyID domain.WarrantyID, claim ClaimRecord) error
	ListByAsset(ctx context.Context, assetID domain.AssetID) ([]Record, error)
}

// InMemoryStore keeps the warranty index in mutex-guarded maps.
type InMemoryStore struct {
	mu      sync.RWMutex
	byAsset map[domain.AssetID][]domain.WarrantyID
	byID    map[domain.WarrantyID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byAsset: make(map[domain.AssetID][]domain.WarrantyID),
		byID:    make(map[domain.WarrantyID]Record),
	}
}

func (s *InMemoryStore) Register(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[record.ID]; exists {
		return fmt.Errorf("warranty %s: %w", record.ID, sentinel.ErrConflict)
	}
	s.byID[record.ID] = record
	s.byAsset[record.AssetID] = append(s.byAsset[record.AssetID], record.ID)
	return nil
}

func (s *InMemoryStore) AddClaim(_ context.Context, warrantyID domain.WarrantyID, claim ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byID[warrantyID]
	if !ok {
		return fmt.Errorf("warranty %s: %w", warrantyID, sentinel.ErrNotFound)
	}
	record.Claims = append(record.Claims, claim)
	s.byID[warrantyID] = record
	return nil
}

func (s *InMemoryStore) ListByAsset(_ context.Context, assetID domain.AssetID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byAsset[assetID]
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, s.byID[id])
	}
	return records, nil
}
