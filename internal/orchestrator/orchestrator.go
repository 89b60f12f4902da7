// Package orchestrator sequences the claim pipeline:
// validate → notify → ledger intake → dual-dip → verify → decide → seal →
// settle. Each step carries an explicit failure policy: fail-closed steps
// abort the pipeline, best-effort steps log and continue. The asymmetry is
// deliberate — denying a possibly-legitimate claim is preferred over paying
// a possibly-fraudulent one, while a sealed decision is never reversed by a
// failed notification.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"claimsgate/internal/audit"
	"claimsgate/internal/claims"
	"claimsgate/internal/claims/intake"
	"claimsgate/internal/events"
	"claimsgate/internal/ledger"
	"claimsgate/internal/platform/metrics"
	"claimsgate/internal/risk"
	"claimsgate/internal/warranty"
	derrors "claimsgate/pkg/domain-errors"
	"claimsgate/pkg/requestcontext"
)

// Outcome is the pipeline's answer for one submission.
type Outcome struct {
	ClaimID       string                  `json:"claim_id"`
	Decision      string                  `json:"decision"`
	Score         int                     `json:"score"`
	Seal          string                  `json:"seal"`
	Rationale     []string                `json:"rationale"`
	CorrelationID string                  `json:"correlation_id"`
	DualDip       *warranty.DualDipResult `json:"dual_dip,omitempty"`
}

// Orchestrator wires the pipeline's collaborators. Constructed once at
// process start and shared across requests; all per-claim state is
// request-scoped.
type Orchestrator struct {
	verifier ledger.Verifier
	audit    *audit.Service
	detector *warranty.Detector
	bus      events.Bus
	ledger   ledger.Appender
	producer string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// New constructs the orchestrator.
func New(verifier ledger.Verifier, auditSvc *audit.Service, detector *warranty.Detector, bus events.Bus, appender ledger.Appender, producer string, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		verifier: verifier,
		audit:    auditSvc,
		detector: detector,
		bus:      bus,
		ledger:   appender,
		producer: producer,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("claimsgate/orchestrator"),
	}
}

// Submit runs the full pipeline for a raw claim payload. The submission
// either completes the pipeline or fails a discrete step; nothing cancels
// it mid-flight.
func (o *Orchestrator) Submit(ctx context.Context, raw []byte) (Outcome, error) {
	start := time.Now()
	correlationID := requestcontext.CorrelationID(ctx)

	ctx, span := o.tracer.Start(ctx, "claims.submit")
	defer span.End()

	// Intake gate: fail-closed. Untrusted bytes become a trusted Claim or
	// the pipeline never starts. The narrative text survives only for this
	// request's dual-dip correlation; the Claim carries its hash.
	claim, narrative, err := o.validate(ctx, raw)
	if err != nil {
		return Outcome{}, err
	}
	span.SetAttributes(attribute.String("claim.id", claim.ID.String()))

	// Intake notification: best-effort.
	o.publish(ctx, events.Event{
		Type:          events.TypeClaimCreated,
		Subject:       claim.ID.String(),
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
		Payload:       map[string]any{"asset_id": string(claim.AssetID)},
	})

	// Canonical intake record: fail-closed. The ledger write is what makes
	// the claim's existence durable; without it there is nothing to
	// adjudicate.
	if err := o.appendIntake(ctx, claim, correlationID); err != nil {
		return Outcome{}, err
	}

	// Dual-dip detection: advisory, never aborts.
	dualDip := o.detectDualDip(ctx, claim, narrative)

	// Ledger verification: fail-closed. An unreachable truth source is
	// never interpreted as verified.
	verification, err := o.verify(ctx, claim)
	if err != nil {
		return Outcome{}, err
	}

	// Risk engine: pure, cannot fail.
	assessment := risk.Evaluate(claim, verification)

	// Audit seal: fail-closed. A duplicate here is a conflict, not a
	// retry — the claim was already decided.
	seal, err := o.seal(ctx, claim, assessment)
	if err != nil {
		return Outcome{}, err
	}

	// Settlement notifications: best-effort. The seal is the authoritative
	// record; a failed publish never reverses it.
	o.settle(ctx, claim, assessment, seal, correlationID)

	o.metrics.ObservePipelineDuration(time.Since(start).Seconds())
	o.logger.InfoContext(ctx, "claim adjudicated",
		"claim_id", claim.ID,
		"correlation_id", correlationID,
		"decision", assessment.Decision,
		"score", assessment.Score,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return Outcome{
		ClaimID:       claim.ID.String(),
		Decision:      string(assessment.Decision),
		Score:         assessment.Score,
		Seal:          seal,
		Rationale:     assessment.Rationale,
		CorrelationID: correlationID,
		DualDip:       dualDip,
	}, nil
}

func (o *Orchestrator) validate(ctx context.Context, raw []byte) (claims.Claim, string, error) {
	ctx, span := o.tracer.Start(ctx, "claims.validate")
	defer span.End()

	var sub intake.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return claims.Claim{}, "", derrors.Wrap(derrors.CodeInvalidInput, "malformed JSON body", err)
	}
	claim, err := intake.FromSubmission(sub)
	if err != nil {
		o.logger.InfoContext(ctx, "claim rejected at intake",
			"correlation_id", requestcontext.CorrelationID(ctx),
			"error", err,
		)
		return claims.Claim{}, "", err
	}
	return claim, sub.Incident.Narrative, nil
}

func (o *Orchestrator) appendIntake(ctx context.Context, claim claims.Claim, correlationID string) error {
	ctx, span := o.tracer.Start(ctx, "claims.ledger_intake")
	defer span.End()

	env, err := ledger.NewEnvelope(
		ledger.EventClaimOpened,
		claim.ID.String(),
		correlationID,
		ledger.IdempotencyKey(ledger.EventClaimOpened, claim.ID.String()),
		o.producer,
		time.Now().UTC(),
		map[string]any{
			"asset_id":    string(claim.AssetID),
			"claimant_id": claim.ClaimantID.String(),
			"policy_ref":  claim.PolicyRef,
		},
	)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "build intake envelope", err)
	}
	if err := o.ledger.Append(ctx, env); err != nil {
		o.logger.ErrorContext(ctx, "intake ledger write failed",
			"claim_id", claim.ID,
			"correlation_id", correlationID,
			"error", err,
		)
		return derrors.Wrap(derrors.CodeBadGateway, "canonical intake record could not be written", err)
	}
	return nil
}

func (o *Orchestrator) detectDualDip(ctx context.Context, claim claims.Claim, narrative string) *warranty.DualDipResult {
	if o.detector == nil {
		return nil
	}
	ctx, span := o.tracer.Start(ctx, "claims.dual_dip")
	defer span.End()

	result, err := o.detector.DetectDualDip(ctx, warranty.DetectRequest{
		ClaimID:             claim.ID,
		AssetID:             claim.AssetID,
		IncidentAt:          claim.IntakeAt,
		IncidentDescription: narrative,
		ClaimAmount:         claim.ClaimedAmount,
	})
	if err != nil {
		o.logger.WarnContext(ctx, "dual-dip detection unavailable",
			"claim_id", claim.ID, "error", err)
		return nil
	}
	return &result
}

func (o *Orchestrator) verify(ctx context.Context, claim claims.Claim) (ledger.VerificationResult, error) {
	ctx, span := o.tracer.Start(ctx, "claims.verify")
	defer span.End()

	verification, err := o.verifier.VerifyAsset(ctx, claim.AssetID, claim.ClaimantID)
	if err != nil {
		o.metrics.IncVerificationFailure()
		o.logger.ErrorContext(ctx, "ledger verification failed",
			"claim_id", claim.ID,
			"correlation_id", requestcontext.CorrelationID(ctx),
			"error", err,
		)
		if derrors.CodeOf(err) == derrors.CodeInternal {
			return ledger.VerificationResult{}, derrors.Wrap(derrors.CodeBadGateway, "ledger verification failed", err)
		}
		return ledger.VerificationResult{}, err
	}
	return verification, nil
}

func (o *Orchestrator) seal(ctx context.Context, claim claims.Claim, assessment risk.Assessment) (string, error) {
	ctx, span := o.tracer.Start(ctx, "claims.seal")
	defer span.End()

	return o.audit.Commit(ctx, audit.DecisionRecord{
		ClaimID:         claim.ID,
		Decision:        assessment.Decision,
		ConfidenceScore: risk.Confidence(assessment.Score),
		Rationale:       assessment.Rationale,
		EvidenceChain:   []string{},
		FinalizedAt:     time.Now().UTC(),
	})
}

func (o *Orchestrator) settle(ctx context.Context, claim claims.Claim, assessment risk.Assessment, seal, correlationID string) {
	ctx, span := o.tracer.Start(ctx, "claims.settle")
	defer span.End()

	o.publish(ctx, events.Event{
		Type:          events.TypeClaimSettled,
		Subject:       claim.ID.String(),
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
		Payload: map[string]any{
			"decision": string(assessment.Decision),
			"score":    assessment.Score,
			"seal":     seal,
		},
	})

	env, err := ledger.NewEnvelope(
		ledger.EventClaimSettled,
		claim.ID.String(),
		correlationID,
		ledger.IdempotencyKey(ledger.EventClaimSettled, claim.ID.String()),
		o.producer,
		time.Now().UTC(),
		map[string]any{"decision": string(assessment.Decision), "seal": seal},
	)
	if err == nil {
		err = o.ledger.Append(ctx, env)
	}
	if err != nil {
		o.logger.WarnContext(ctx, "settlement ledger write failed",
			"claim_id", claim.ID,
			"correlation_id", correlationID,
			"error", err,
		)
	}
}

func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if err := o.bus.Publish(ctx, event); err != nil {
		o.metrics.IncEventPublish("error")
		o.logger.WarnContext(ctx, "event publish failed",
			"event_type", event.Type,
			"subject", event.Subject,
			"error", err,
		)
		return
	}
	o.metrics.IncEventPublish("ok")
}
