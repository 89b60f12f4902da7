// Package events carries side-effect notifications: the pub/sub bus used
// for downstream fan-out and the lifecycle event recorder with idempotent
// replay semantics.
package events

import (
	"context"
	"time"
)

// Event is a bus notification. Bus publishes are best-effort on the
// settlement path: failures are logged, never reversed into a sealed
// decision.
type Event struct {
	Type           string         `json:"type"`
	Subject        string         `json:"subject"`
	CorrelationID  string         `json:"correlation_id"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// Bus event types.
const (
	TypeClaimCreated = "claim.created"
	TypeClaimSettled = "claim.settled"
	TypeLifecycle    = "claim.lifecycle"
)

// Bus fans events out to downstream consumers.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
