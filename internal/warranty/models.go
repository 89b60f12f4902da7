// Package warranty maintains the per-asset warranty index and the dual-dip
// detector that cross-references insurance claims against manufacturer
// warranty claims for the same loss.
package warranty

import (
	"time"

	"claimsgate/pkg/domain"
)

// Type classifies who backs a warranty.
type Type string

const (
	TypeManufacturer Type = "MANUFACTURER"
	TypeExtended     Type = "EXTENDED"
	TypeThirdParty   Type = "THIRD_PARTY"
)

// Valid reports whether t is a member of the closed set.
func (t Type) Valid() bool {
	return t == TypeManufacturer || t == TypeExtended || t == TypeThirdParty
}

// Status is the warranty lifecycle state.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusExpired Status = "EXPIRED"
	StatusVoided  Status = "VOIDED"
)

// Valid reports whether s is a member of the closed set.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusExpired || s == StatusVoided
}

// Resolution is the terminal state of a warranty claim.
type Resolution string

const (
	ResolutionPending           Resolution = "PENDING"
	ResolutionApproved          Resolution = "APPROVED"
	ResolutionDenied            Resolution = "DENIED"
	ResolutionRepairCompleted   Resolution = "REPAIR_COMPLETED"
	ResolutionReplacementIssued Resolution = "REPLACEMENT_ISSUED"
)

// Valid reports whether r is a member of the closed set.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionPending, ResolutionApproved, ResolutionDenied,
		ResolutionRepairCompleted, ResolutionReplacementIssued:
		return true
	}
	return false
}

// Compensated reports whether the warranty claim already paid out in some
// form. An insurance claim for the same loss on top of this is the dual-dip
// pattern.
func (r Resolution) Compensated() bool {
	switch r {
	case ResolutionApproved, ResolutionRepairCompleted, ResolutionReplacementIssued:
		return true
	}
	return false
}

// Record is one warranty attached to an asset. Populated by external
// registration events; read-only from the claims engine's perspective.
type Record struct {
	ID        domain.WarrantyID `json:"id"`
	AssetID   domain.AssetID    `json:"asset_id"`
	Type      Type              `json:"type"`
	Status    Status            `json:"status"`
	Provider  string            `json:"provider"`
	ExpiresAt time.Time         `json:"expires_at"`
	Claims    []ClaimRecord     `json:"claims"`
}

// ClaimRecord is one historical claim filed against a warranty.
type ClaimRecord struct {
	ID               string     `json:"id"`
	FiledAt          time.Time  `json:"filed_at"`
	IssueDescription string     `json:"issue_description"`
	Resolution       Resolution `json:"resolution"`
	AmountPaid       float64    `json:"amount_paid"`
}

// FindingCode names a dual-dip signal.
type FindingCode string

const (
	FindingDuplicateIssue       FindingCode = "DUPLICATE_ISSUE"
	FindingWarrantyClaimOverlap FindingCode = "WARRANTY_CLAIM_OVERLAP"
	FindingTimingSuspicious     FindingCode = "TIMING_SUSPICIOUS"
)

// Severity grades a finding.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Finding is one correlated signal between the insurance claim and a
// warranty claim on the same asset.
type Finding struct {
	Code            FindingCode       `json:"code"`
	Severity        Severity          `json:"severity"`
	WarrantyID      domain.WarrantyID `json:"warranty_id"`
	WarrantyClaimID string            `json:"warranty_claim_id"`
	Detail          string            `json:"detail"`
}

// RiskLevel aggregates findings into a single grade.
type RiskLevel string

const (
	RiskNone     RiskLevel = "NONE"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Recommendation maps a risk level to an adjuster action.
type Recommendation string

const (
	RecommendProceed     Recommendation = "PROCEED"
	RecommendInvestigate Recommendation = "INVESTIGATE"
	RecommendDeny        Recommendation = "DENY"
	RecommendReferSIU    Recommendation = "REFER_SIU"
)

// SubrogationOpportunity is advisory output: when the loss looks like a
// covered manufacturer defect, the insurer may recover from the warranty
// provider instead of eating the payout.
type SubrogationOpportunity struct {
	TargetParty     string  `json:"target_party"`
	WarrantyType    Type    `json:"warranty_type"`
	EstimatedAmount float64 `json:"estimated_amount"`
	Confidence      float64 `json:"confidence"`
	Basis           string  `json:"basis"`
}

// DualDipResult is the detector's output. It is surfaced alongside the main
// decision but never overwrites it.
type DualDipResult struct {
	ClaimID        domain.ClaimID          `json:"claim_id"`
	AssetID        domain.AssetID          `json:"asset_id"`
	Findings       []Finding               `json:"findings"`
	RiskLevel      RiskLevel               `json:"risk_level"`
	Recommendation Recommendation          `json:"recommendation"`
	Subrogation    *SubrogationOpportunity `json:"subrogation,omitempty"`
	EvaluatedAt    time.Time               `json:"evaluated_at"`
}
