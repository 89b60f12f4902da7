package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"claimsgate/internal/ledger"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
	"claimsgate/pkg/requestcontext"
)

// RecordStatus distinguishes a fresh recording from an idempotent replay.
type RecordStatus string

const (
	StatusRecorded         RecordStatus = "RECORDED"
	StatusAlreadyProcessed RecordStatus = "ALREADY_PROCESSED"
)

// defaultResultTTL bounds how long replay results are retained when the
// window is not configured. Replays after the window are reprocessed, which
// is safe because the bus consumers deduplicate by idempotency key.
const defaultResultTTL = 24 * time.Hour

// RecordResult is returned to the caller; replays receive the original
// result with StatusAlreadyProcessed.
type RecordResult struct {
	Status         RecordStatus   `json:"status"`
	EventID        string         `json:"event_id"`
	EventType      string         `json:"event_type"`
	IdempotencyKey string         `json:"idempotency_key"`
	RecordedAt     time.Time      `json:"recorded_at"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// Recorder records claim lifecycle events exactly once per idempotency key
// and fans them out on the bus.
type Recorder struct {
	store     IdempotencyStore
	bus       Bus
	resultTTL time.Duration
	logger    *slog.Logger
}

// NewRecorder constructs the lifecycle event recorder. resultTTL bounds the
// replay-detection window; zero or negative selects the default.
func NewRecorder(store IdempotencyStore, bus Bus, resultTTL time.Duration, logger *slog.Logger) *Recorder {
	if resultTTL <= 0 {
		resultTTL = defaultResultTTL
	}
	return &Recorder{store: store, bus: bus, resultTTL: resultTTL, logger: logger}
}

// Record applies a lifecycle event at most once. When idempotencyKey is
// empty, a deterministic key is derived from the event type and claim id,
// so unkeyed retries of the same transition still deduplicate.
func (r *Recorder) Record(ctx context.Context, claimID domain.ClaimID, eventType string, payload map[string]any, idempotencyKey string) (RecordResult, error) {
	if eventType == "" {
		return RecordResult{}, derrors.New(derrors.CodeInvalidInput, "event type is required")
	}
	if idempotencyKey == "" {
		idempotencyKey = ledger.IdempotencyKey(eventType, claimID.String())
	}

	result := RecordResult{
		Status:         StatusRecorded,
		EventID:        uuid.NewString(),
		EventType:      eventType,
		IdempotencyKey: idempotencyKey,
		RecordedAt:     requestcontext.Now(ctx).UTC(),
		Payload:        payload,
	}

	value, err := json.Marshal(result)
	if err != nil {
		return RecordResult{}, derrors.Wrap(derrors.CodeInternal, "marshal record result", err)
	}

	stored, inserted, err := r.store.PutIfAbsent(ctx, idempotencyKey, value, r.resultTTL)
	if err != nil {
		return RecordResult{}, derrors.Wrap(derrors.CodeInternal, "idempotency check", err)
	}
	if !inserted {
		var original RecordResult
		if err := json.Unmarshal(stored, &original); err != nil {
			return RecordResult{}, derrors.Wrap(derrors.CodeInternal, "decode stored result", err)
		}
		original.Status = StatusAlreadyProcessed
		r.logger.InfoContext(ctx, "lifecycle event replay detected",
			"claim_id", claimID,
			"event_type", eventType,
			"idempotency_key", idempotencyKey,
		)
		return original, nil
	}

	// Fan-out is best-effort: the recording is the authoritative fact.
	busEvent := Event{
		Type:           TypeLifecycle,
		Subject:        claimID.String(),
		CorrelationID:  requestcontext.CorrelationID(ctx),
		IdempotencyKey: idempotencyKey,
		OccurredAt:     result.RecordedAt,
		Payload: map[string]any{
			"event_id":   result.EventID,
			"event_type": eventType,
			"payload":    payload,
		},
	}
	if err := r.bus.Publish(ctx, busEvent); err != nil {
		r.logger.WarnContext(ctx, "lifecycle event publish failed",
			"claim_id", claimID,
			"event_type", eventType,
			"error", err,
		)
	}

	return result, nil
}
