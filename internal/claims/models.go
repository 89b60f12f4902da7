// Package claims defines the trusted Claim record and its closed
// vocabularies. A Claim exists only as the output of the intake gate;
// downstream components may assume its invariants hold without re-checking.
package claims

import (
	"time"

	"claimsgate/pkg/domain"
)

// IncidentType is the closed set of incident classifications.
type IncidentType string

const (
	IncidentTheft  IncidentType = "THEFT"
	IncidentDamage IncidentType = "DAMAGE"
)

// Valid reports whether t is a member of the closed set.
func (t IncidentType) Valid() bool {
	return t == IncidentTheft || t == IncidentDamage
}

// Status is the claim lifecycle status. Transitions are represented by new
// decision and audit records, never by mutating a Claim.
type Status string

const (
	StatusIntake       Status = "INTAKE"
	StatusVerifying    Status = "VERIFYING"
	StatusManualReview Status = "MANUAL_REVIEW"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
)

// Valid reports whether s is a member of the closed set.
func (s Status) Valid() bool {
	switch s {
	case StatusIntake, StatusVerifying, StatusManualReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// GeoPoint is a validated geographic coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Region is a bounding box taken from the policy snapshot. The zero value
// means the policy carries no territorial restriction.
type Region struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// IsZero reports whether the region is unset.
func (r Region) IsZero() bool {
	return r == Region{}
}

// Contains reports whether p falls inside the region.
func (r Region) Contains(p GeoPoint) bool {
	return p.Lat >= r.MinLat && p.Lat <= r.MaxLat &&
		p.Lon >= r.MinLon && p.Lon <= r.MaxLon
}

// IncidentVector is the structured description of what happened, where, and
// how severely. The free-text narrative is never stored; only its SHA-256
// hash survives intake.
type IncidentVector struct {
	Type          IncidentType `json:"type"`
	Location      GeoPoint     `json:"location"`
	Severity      int          `json:"severity"`
	NarrativeHash string       `json:"narrative_hash"`
}

// Claim is the trusted, immutable record produced by the intake gate.
type Claim struct {
	ID            domain.ClaimID    `json:"id"`
	IntakeAt      time.Time         `json:"intake_at"`
	PolicyRef     string            `json:"policy_ref"`
	PolicyRegion  Region            `json:"policy_region"`
	ClaimantID    domain.ClaimantID `json:"claimant_id"`
	AssetID       domain.AssetID    `json:"asset_id"`
	ClaimedAmount float64           `json:"claimed_amount"`
	Incident      IncidentVector    `json:"incident"`
	Status        Status            `json:"status"`
}

// InPolicyRegion reports whether the incident location satisfies the policy
// territory check. An unset region imposes no restriction.
func (c Claim) InPolicyRegion() bool {
	if c.PolicyRegion.IsZero() {
		return true
	}
	return c.PolicyRegion.Contains(c.Incident.Location)
}
