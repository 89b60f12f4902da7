// Package ledgertest holds test doubles for the ledger integration. The
// prefix-based fixture verifier stands in for a real ledger in tests and
// local runs; it is deliberately kept out of production packages.
package ledgertest

import (
	"context"
	"strings"
	"sync"
	"time"

	"claimsgate/internal/ledger"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
)

// Asset id prefixes recognized by the fixture verifier.
const (
	PrefixStolen   = "asset_stolen_"
	PrefixGap      = "asset_gap_"
	PrefixForeign  = "asset_foreign_"
	PrefixUnstable = "asset_unstable_"
)

// FixtureVerifier returns canned verification results keyed by asset id
// prefix:
//
//	asset_stolen_*   unknown to the ledger (maximally suspicious)
//	asset_gap_*      owned by the claimant, custody discontinuity
//	asset_foreign_*  known asset held by someone other than the claimant
//	asset_unstable_* simulated ledger outage (fails closed)
//
// Anything else verifies clean for the given claimant.
type FixtureVerifier struct{}

func (FixtureVerifier) VerifyAsset(_ context.Context, assetID domain.AssetID, _ domain.ClaimantID) (ledger.VerificationResult, error) {
	now := time.Now().UTC()
	id := string(assetID)

	switch {
	case strings.HasPrefix(id, PrefixUnstable):
		return ledger.VerificationResult{}, derrors.New(derrors.CodeBadGateway, "ledger unreachable")
	case strings.HasPrefix(id, PrefixStolen):
		return ledger.VerificationResult{
			AssetMatch:     false,
			OwnershipMatch: false,
			ProvenanceGap:  true,
			VerifiedAt:     now,
		}, nil
	case strings.HasPrefix(id, PrefixForeign):
		return ledger.VerificationResult{
			AssetMatch:     true,
			OwnershipMatch: false,
			VerifiedAt:     now,
		}, nil
	case strings.HasPrefix(id, PrefixGap):
		return ledger.VerificationResult{
			AssetMatch:     true,
			OwnershipMatch: true,
			ProvenanceGap:  true,
			VerifiedAt:     now,
		}, nil
	default:
		return ledger.VerificationResult{
			AssetMatch:     true,
			OwnershipMatch: true,
			VerifiedAt:     now,
		}, nil
	}
}

// MemoryLedger is an in-process ledger.API for tests. It replicates the
// real ledger's dedup-by-idempotency-key behavior so worker retry semantics
// can be exercised without a network.
type MemoryLedger struct {
	mu     sync.Mutex
	events []ledger.EventEnvelope
	byIdem map[string]struct{}

	// FailTypes simulates write failures for specific event types.
	FailTypes map[string]bool
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byIdem: make(map[string]struct{})}
}

func (m *MemoryLedger) Append(_ context.Context, env ledger.EventEnvelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTypes[env.EventType] {
		return derrors.New(derrors.CodeBadGateway, "simulated append failure")
	}
	if _, dup := m.byIdem[env.IdempotencyKey]; dup {
		return nil // deduplicated server-side
	}
	m.byIdem[env.IdempotencyKey] = struct{}{}
	m.events = append(m.events, env)
	return nil
}

func (m *MemoryLedger) Query(_ context.Context, q ledger.Query) ([]ledger.EventEnvelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.EventEnvelope
	for _, e := range m.events {
		if q.Subject != "" && e.Subject != q.Subject {
			continue
		}
		if q.EventType != "" && e.EventType != q.EventType {
			continue
		}
		if !q.Since.IsZero() && e.OccurredAt.Before(q.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Events returns a copy of everything appended, in order.
func (m *MemoryLedger) Events() []ledger.EventEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ledger.EventEnvelope{}, m.events...)
}

// Seed appends an envelope directly, bypassing failure simulation.
func (m *MemoryLedger) Seed(env ledger.EventEnvelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byIdem[env.IdempotencyKey] = struct{}{}
	m.events = append(m.events, env)
}
