package ledger

import (
	"context"
	"time"

	"claimsgate/pkg/domain"
)

// VerificationResult is the outcome of checking a claim's asset and
// ownership against the ledger. Produced fresh per claim and never cached:
// ownership can change between requests.
type VerificationResult struct {
	AssetMatch     bool      `json:"asset_match"`
	OwnershipMatch bool      `json:"ownership_match"`
	ProvenanceGap  bool      `json:"provenance_gap"`
	ConditionDelta float64   `json:"condition_delta"`
	VerifiedAt     time.Time `json:"verified_at"`
}

// Verifier is the ledger verification port. Implementations must be
// idempotent and side-effect-free, and must fail closed: a transport or
// lookup failure returns an error, never a degraded success. An unknown
// asset is not an error — it verifies as maximally suspicious
// (no asset match, no ownership match, provenance gap).
type Verifier interface {
	VerifyAsset(ctx context.Context, assetID domain.AssetID, claimantID domain.ClaimantID) (VerificationResult, error)
}

// Appender writes canonical envelopes to the ledger.
type Appender interface {
	Append(ctx context.Context, env EventEnvelope) error
}

// Querier reads back events by subject and type. Used for idempotency
// checks (has a CLAIM_OPENED already been recorded for this claim id).
type Querier interface {
	Query(ctx context.Context, q Query) ([]EventEnvelope, error)
}

// API is the full ledger client surface the worker depends on.
type API interface {
	Appender
	Querier
}

// Query filters ledger events. Zero fields are not applied.
type Query struct {
	Subject   string
	EventType string
	Since     time.Time
}
