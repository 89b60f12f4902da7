// Package salvage owns the post-settlement manifest of recoverable assets.
// Manifests exist only for claims whose sealed decision is PAY.
package salvage

import (
	"time"

	"claimsgate/pkg/domain"
)

// ManifestStatus is the manifest lifecycle state.
type ManifestStatus string

const (
	StatusDraft         ManifestStatus = "DRAFT"
	StatusPendingPickup ManifestStatus = "PENDING_PICKUP"
	StatusListed        ManifestStatus = "LISTED"
	StatusSold          ManifestStatus = "SOLD"
	StatusCancelled     ManifestStatus = "CANCELLED"
)

// transitions is the full state machine: DRAFT → PENDING_PICKUP → LISTED →
// SOLD, with CANCELLED reachable from any non-terminal state.
var transitions = map[ManifestStatus][]ManifestStatus{
	StatusDraft:         {StatusPendingPickup, StatusCancelled},
	StatusPendingPickup: {StatusListed, StatusCancelled},
	StatusListed:        {StatusSold, StatusCancelled},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to ManifestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Item is one recoverable asset on a manifest.
type Item struct {
	AssetID        domain.AssetID `json:"asset_id"`
	Description    string         `json:"description"`
	EstimatedValue float64        `json:"estimated_value"`
}

// Manifest is the claim-scoped, ordered collection of recoverable assets.
type Manifest struct {
	ID        domain.ManifestID `json:"id"`
	ClaimID   domain.ClaimID    `json:"claim_id"`
	Items     []Item            `json:"items"`
	Status    ManifestStatus    `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
