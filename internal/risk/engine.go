// Package risk scores a verified claim and maps the score to a binding
// decision. Evaluate is a pure function: identical inputs always yield an
// identical score, decision, and rationale ordering.
package risk

import (
	"claimsgate/internal/claims"
	"claimsgate/internal/ledger"
	"claimsgate/pkg/domain"
)

// Scoring constants. These encode regulatory and business policy, so they
// are named and exported rather than inlined: auditors and tests reference
// them directly.
const (
	BaseScore = 100

	// OwnershipGapPenalty applies when the custody history shows a
	// discontinuity.
	OwnershipGapPenalty = 50

	// LocationMismatchPenalty applies when the incident location falls
	// outside the policy territory.
	LocationMismatchPenalty = 25

	// AutoApproveThreshold and above pays out without human review.
	AutoApproveThreshold = 90

	// ManualReviewThreshold and above (below auto-approve) flags for a
	// human adjuster. Anything below denies.
	ManualReviewThreshold = 70
)

// Rationale strings are part of the audited record; change them only with a
// policy review.
const (
	RationaleLedgerMismatch   = "Ledger Mismatch"
	RationaleProvenanceGap    = "Provenance Gap"
	RationaleLocationMismatch = "Location Mismatch"
	RationaleClean            = "All Checks Passed"
)

// Assessment is the engine's output: the score, the mapped decision, and
// the ordered rationale behind both.
type Assessment struct {
	Score     int
	Decision  domain.Decision
	Rationale []string
}

// Evaluate scores a claim against its verification result.
//
// The hard gate runs first: an asset or ownership mismatch zeroes the score
// and denies immediately — soft penalties are never evaluated once it
// trips. Otherwise penalties subtract from the base score (floored at 0)
// and the decision follows the thresholds.
func Evaluate(claim claims.Claim, verification ledger.VerificationResult) Assessment {
	if !verification.AssetMatch || !verification.OwnershipMatch {
		return Assessment{
			Score:     0,
			Decision:  domain.DecisionDeny,
			Rationale: []string{RationaleLedgerMismatch},
		}
	}

	score := BaseScore
	var rationale []string

	if verification.ProvenanceGap {
		score -= OwnershipGapPenalty
		rationale = append(rationale, RationaleProvenanceGap)
	}
	if !claim.InPolicyRegion() {
		score -= LocationMismatchPenalty
		rationale = append(rationale, RationaleLocationMismatch)
	}
	if score < 0 {
		score = 0
	}
	if len(rationale) == 0 {
		rationale = []string{RationaleClean}
	}

	return Assessment{
		Score:     score,
		Decision:  decisionFor(score),
		Rationale: rationale,
	}
}

func decisionFor(score int) domain.Decision {
	switch {
	case score >= AutoApproveThreshold:
		return domain.DecisionPay
	case score >= ManualReviewThreshold:
		return domain.DecisionFlag
	default:
		return domain.DecisionDeny
	}
}

// Confidence normalizes a score into the [0.0, 1.0] confidence recorded on
// the decision record.
func Confidence(score int) float64 {
	if score < 0 {
		return 0
	}
	if score > BaseScore {
		return 1
	}
	return float64(score) / float64(BaseScore)
}
