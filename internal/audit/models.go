// Package audit is the append-only, tamper-evident record of claim
// decisions. It is the single source of truth for "has this claim already
// been decided": every component needing idempotency consults it instead of
// re-deriving state.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"claimsgate/pkg/domain"
)

// DecisionRecord is the binding output of adjudication. Created exactly
// once per claim; immutable thereafter.
type DecisionRecord struct {
	ClaimID         domain.ClaimID  `json:"claim_id"`
	Decision        domain.Decision `json:"decision"`
	ConfidenceScore float64         `json:"confidence_score"`
	Rationale       []string        `json:"rationale"`
	// EvidenceChain holds ordered proof hashes. Currently empty
	// placeholders reserved for a future Merkle proof.
	EvidenceChain []string  `json:"evidence_chain"`
	FinalizedAt   time.Time `json:"finalized_at"`
}

// AuditEntry is a DecisionRecord plus its seal. At most one entry may ever
// exist per claim id.
type AuditEntry struct {
	Record      DecisionRecord `json:"record"`
	Seal        string         `json:"seal"`
	CommittedAt time.Time      `json:"committed_at"`
}

// Seal computes the SHA-256 hex digest of the record's canonical
// serialization. Struct fields marshal in declaration order, so the
// serialization — and therefore the seal — is stable for identical records.
func Seal(record DecisionRecord) (string, error) {
	canonical := record
	canonical.FinalizedAt = record.FinalizedAt.UTC()
	raw, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("marshal decision record for sealing: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
