package salvage

import (
	"context"
	"fmt"
	"sync"

	"claimsgate/pkg/domain"
	"claimsgate/pkg/platform/sentinel"
)

// Store persists manifests keyed by manifest id, with a claim-id index to
// enforce one manifest per claim.
type Store interface {
	Create(ctx context.Context, manifest Manifest) error
	Update(ctx context.Context, manifest Manifest) error
	Get(ctx context.Context, id domain.ManifestID) (Manifest, error)
	GetByClaim(ctx context.Context, claimID domain.ClaimID) (Manifest, error)
}

// InMemoryStore keeps manifests in mutex-guarded maps.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[domain.ManifestID]Manifest
	byClaim map[domain.ClaimID]domain.ManifestID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[domain.ManifestID]Manifest),
		byClaim: make(map[domain.ClaimID]domain.ManifestID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, manifest Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byClaim[manifest.ClaimID]; exists {
		return fmt.Errorf("manifest for claim %s: %w", manifest.ClaimID, sentinel.ErrConflict)
	}
	s.byID[manifest.ID] = manifest
	s.byClaim[manifest.ClaimID] = manifest.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, manifest Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[manifest.ID]; !exists {
		return fmt.Errorf("manifest %s: %w", manifest.ID, sentinel.ErrNotFound)
	}
	s.byID[manifest.ID] = manifest
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.ManifestID) (Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if manifest, ok := s.byID[id]; ok {
		return manifest, nil
	}
	return Manifest{}, fmt.Errorf("manifest %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) GetByClaim(_ context.Context, claimID domain.ClaimID) (Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byClaim[claimID]; ok {
		return s.byID[id], nil
	}
	return Manifest{}, fmt.Errorf("manifest for claim %s: %w", claimID, sentinel.ErrNotFound)
}
