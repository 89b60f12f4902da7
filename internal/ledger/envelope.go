// Package ledger integrates with the external custody ledger: the canonical
// event envelope written to it, the append/query client, and the asset
// verification adapter that consults it as the source of truth.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the canonical envelope version this module emits. The
// legacy pre-envelope event shape is not produced; see DESIGN.md for the
// compatibility decision.
const SchemaVersion = "1.0"

// Canonical event types written by this system.
const (
	EventClaimOpened           = "CLAIM_OPENED"
	EventClaimDecisionRecorded = "CLAIM_DECISION_RECORDED"
	EventClaimPayoutAuthorized = "CLAIM_PAYOUT_AUTHORIZED"
	EventClaimSettled          = "CLAIM_SETTLED"
	EventSalvageListed         = "SALVAGE_LISTED"
)

// EventCustodySealBroken is the externally generated trigger the worker
// polls for.
const EventCustodySealBroken = "CUSTODY_SEAL_BROKEN"

// EventEnvelope is the canonical wire contract for ledger writes. The
// ledger is append-only and deduplicates by idempotency key.
type EventEnvelope struct {
	SchemaVersion    string         `json:"schema_version"`
	EventType        string         `json:"event_type"`
	OccurredAt       time.Time      `json:"occurred_at"`
	CorrelationID    string         `json:"correlation_id"`
	IdempotencyKey   string         `json:"idempotency_key"`
	Producer         string         `json:"producer"`
	Subject          string         `json:"subject"`
	Payload          map[string]any `json:"payload"`
	CanonicalHashHex string         `json:"canonical_hash_hex"`
}

// NewEnvelope builds a sealed envelope. The canonical hash covers every
// field except the hash itself.
func NewEnvelope(eventType, subject, correlationID, idempotencyKey, producer string, occurredAt time.Time, payload map[string]any) (EventEnvelope, error) {
	env := EventEnvelope{
		SchemaVersion:  SchemaVersion,
		EventType:      eventType,
		OccurredAt:     occurredAt.UTC(),
		CorrelationID:  correlationID,
		IdempotencyKey: idempotencyKey,
		Producer:       producer,
		Subject:        subject,
		Payload:        payload,
	}
	hash, err := env.CanonicalHash()
	if err != nil {
		return EventEnvelope{}, err
	}
	env.CanonicalHashHex = hash
	return env, nil
}

// CanonicalHash computes the SHA-256 hex digest of the envelope's canonical
// serialization, excluding the hash field. encoding/json sorts map keys, so
// the serialization is stable for identical inputs.
func (e EventEnvelope) CanonicalHash() (string, error) {
	clone := e
	clone.CanonicalHashHex = ""
	raw, err := json.Marshal(clone)
	if err != nil {
		return "", fmt.Errorf("marshal envelope for hashing: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// IdempotencyKey derives the deterministic per-event idempotency key. The
// same event type for the same claim always maps to the same key, which is
// what makes at-least-once delivery safe to re-apply.
func IdempotencyKey(eventType, claimID string) string {
	return fmt.Sprintf("idem:%s:%s", eventType, claimID)
}
