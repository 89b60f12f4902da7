// Package worker is the ledger-listener: a long-running process,
// independent of the request-driven orchestrator, that polls the ledger for
// externally generated trigger events and converts each into a
// deterministic claim with a fixed, idempotent event sequence.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"claimsgate/internal/ledger"
	"claimsgate/internal/platform/config"
	"claimsgate/internal/platform/metrics"
	"claimsgate/pkg/domain"
)

// claimNamespace is the fixed UUIDv5 namespace for trigger→claim
// derivation. The same trigger id always maps to the same claim id; this
// is the idempotency anchor for the whole worker.
var claimNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Worker polls the ledger and processes triggers sequentially within a
// cycle, preserving the per-claim event ordering. Triggers for different
// claims in one cycle have no ordering guarantee relative to each other.
type Worker struct {
	ledger       ledger.API
	cfg          config.Worker
	producer     string
	seen         *gocache.Cache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	lastPolledAt time.Time
}

// New constructs the worker.
func New(api ledger.API, cfg config.Worker, producer string, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		ledger:   api,
		cfg:      cfg,
		producer: producer,
		seen:     gocache.New(cfg.SeenCacheTTL, 10*time.Minute),
		logger:   logger,
		metrics:  m,
	}
}

// Run polls until ctx is cancelled. Shutdown is graceful: cancellation
// stops scheduling new polls while an in-flight poll finishes.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "ledger listener started",
		"poll_interval", w.cfg.PollInterval,
		"trigger_type", w.cfg.TriggerType,
	)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "ledger listener stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				w.logger.ErrorContext(ctx, "poll cycle failed", "error", err)
			}
		}
	}
}

// Poll fetches new triggers and processes them sequentially. A failed
// trigger stays unmarked and is retried on a later cycle: at-least-once
// delivery with idempotent re-application.
func (w *Worker) Poll(ctx context.Context) error {
	triggers, err := w.ledger.Query(ctx, ledger.Query{
		EventType: w.cfg.TriggerType,
		Since:     w.lastPolledAt,
	})
	if err != nil {
		return fmt.Errorf("query triggers: %w", err)
	}

	// The window never advances past the oldest failed trigger: a trigger
	// that keeps failing must stay inside the query range until it
	// completes, no matter how many cycles that takes. Re-fetched successes
	// are absorbed by the seen cache and the remote completion check.
	windowStart := time.Now().UTC().Add(-w.cfg.PollInterval)
	for _, trigger := range triggers {
		if err := w.ProcessTrigger(ctx, trigger); err != nil {
			w.metrics.IncWorkerTrigger("failed")
			w.logger.ErrorContext(ctx, "trigger processing failed",
				"trigger_key", trigger.IdempotencyKey,
				"error", err,
			)
			// Not marked as seen: the next cycle retries it.
			if trigger.OccurredAt.Before(windowStart) {
				windowStart = trigger.OccurredAt
			}
			continue
		}
	}

	w.lastPolledAt = windowStart
	return nil
}

// ProcessTrigger converts one trigger into its claim event sequence exactly
// once. Replays are detected by the local cache first and the ledger
// itself second, so a restart of this process cannot double-open a claim.
func (w *Worker) ProcessTrigger(ctx context.Context, trigger ledger.EventEnvelope) error {
	triggerID := trigger.IdempotencyKey
	if triggerID == "" {
		triggerID = trigger.CanonicalHashHex
	}

	claimID := DeriveClaimID(triggerID)

	if _, cached := w.seen.Get(triggerID); cached {
		w.metrics.IncWorkerTrigger("skipped")
		return nil
	}

	decision := EvaluatePolicy(w.cfg.ProtectionActive)

	// The remote completion check looks for the LAST event of the sequence,
	// not CLAIM_OPENED: a partially written sequence from a failed cycle
	// must be re-driven to completion, and the ledger's idempotency-key
	// dedup absorbs the already-written head.
	finalEvent := ledger.EventClaimDecisionRecorded
	if decision == PolicyPay {
		finalEvent = ledger.EventClaimPayoutAuthorized
	}
	done, err := w.ledger.Query(ctx, ledger.Query{
		Subject:   claimID.String(),
		EventType: finalEvent,
	})
	if err != nil {
		return fmt.Errorf("check for existing claim: %w", err)
	}
	if len(done) > 0 {
		// A prior cycle or process instance already handled this trigger.
		w.seen.SetDefault(triggerID, struct{}{})
		w.metrics.IncWorkerTrigger("skipped")
		return nil
	}

	correlationID := trigger.CorrelationID
	if correlationID == "" {
		correlationID = triggerID
	}

	sequence := []struct {
		eventType string
		payload   map[string]any
	}{
		{ledger.EventClaimOpened, map[string]any{
			"trigger_id":   triggerID,
			"trigger_type": trigger.EventType,
			"asset_id":     trigger.Subject,
		}},
		{ledger.EventClaimDecisionRecorded, map[string]any{
			"decision": string(decision),
		}},
	}
	if decision == PolicyPay {
		sequence = append(sequence, struct {
			eventType string
			payload   map[string]any
		}{ledger.EventClaimPayoutAuthorized, map[string]any{
			"decision": string(decision),
		}})
	}

	for _, step := range sequence {
		env, err := ledger.NewEnvelope(
			step.eventType,
			claimID.String(),
			correlationID,
			ledger.IdempotencyKey(step.eventType, claimID.String()),
			w.producer,
			time.Now().UTC(),
			step.payload,
		)
		if err != nil {
			return fmt.Errorf("build %s envelope: %w", step.eventType, err)
		}
		if err := w.ledger.Append(ctx, env); err != nil {
			// Leave the trigger unmarked; the sequence is re-applied on
			// retry and the ledger deduplicates the already-written part.
			return fmt.Errorf("append %s: %w", step.eventType, err)
		}
	}

	w.seen.SetDefault(triggerID, struct{}{})
	w.metrics.IncWorkerTrigger("processed")
	w.logger.InfoContext(ctx, "trigger converted to claim",
		"trigger_key", triggerID,
		"claim_id", claimID,
		"correlation_id", correlationID,
		"decision", decision,
	)
	return nil
}

// DeriveClaimID maps a trigger id to its deterministic claim id.
func DeriveClaimID(triggerID string) domain.ClaimID {
	return domain.ClaimID(uuid.NewSHA1(claimNamespace, []byte(triggerID)))
}
