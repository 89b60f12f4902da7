package httptransport

import "time"

// ClaimStatusResponse is the HTTP response for GET /claims/{id}/status.
type ClaimStatusResponse struct {
	ClaimID         string    `json:"claim_id"`
	Decision        string    `json:"decision"`
	ConfidenceScore float64   `json:"confidence_score"`
	Rationale       []string  `json:"rationale"`
	Seal            string    `json:"seal"`
	FinalizedAt     time.Time `json:"finalized_at"`
}
