package httptransport

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"claimsgate/internal/events"
	"claimsgate/internal/warranty"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
	"claimsgate/pkg/platform/httputil"
	"claimsgate/pkg/requestcontext"
)

// maxClaimBodyBytes bounds submission payloads before they reach the
// intake gate.
const maxClaimBodyBytes = 1 << 20

// HandleSubmitClaim handles POST /claims: the full adjudication pipeline in
// one request.
func (h *Handler) HandleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := requestcontext.CorrelationID(ctx)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxClaimBodyBytes))
	if err != nil {
		httputil.WriteErrorCorrelated(w,
			derrors.Wrap(derrors.CodeInvalidInput, "request body unreadable or too large", err),
			correlationID)
		return
	}

	outcome, err := h.pipeline.Submit(ctx, raw)
	if err != nil {
		httputil.WriteErrorCorrelated(w, err, correlationID)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, outcome)
}

// HandleClaimStatus handles GET /claims/{claimID}/status.
func (h *Handler) HandleClaimStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := domain.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.audit.GetRecord(ctx, claimID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ClaimStatusResponse{
		ClaimID:         entry.Record.ClaimID.String(),
		Decision:        string(entry.Record.Decision),
		ConfidenceScore: entry.Record.ConfidenceScore,
		Rationale:       entry.Record.Rationale,
		Seal:            entry.Seal,
		FinalizedAt:     entry.Record.FinalizedAt,
	})
}

// HandleRecordEvent handles POST /claims/{claimID}/events. A replayed
// idempotency key returns the original result with 200 instead of 201.
func (h *Handler) HandleRecordEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := domain.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[RecordEventRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.recorder.Record(ctx, claimID, req.EventType, req.Payload, req.IdempotencyKey)
	if err != nil {
		h.logger.ErrorContext(ctx, "lifecycle event recording failed",
			"claim_id", claimID,
			"event_type", req.EventType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Status == events.StatusAlreadyProcessed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, result)
}

// HandleDualDip handles POST /claims/{claimID}/dual-dip: a standalone
// cross-reference of an insurance claim against the warranty index.
func (h *Handler) HandleDualDip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := domain.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[DualDipRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	incidentAt := req.ParsedIncidentAt()
	if incidentAt.IsZero() {
		incidentAt = time.Now().UTC()
	}

	result, err := h.detector.DetectDualDip(ctx, warranty.DetectRequest{
		ClaimID:             claimID,
		AssetID:             req.ParsedAssetID(),
		IncidentAt:          incidentAt,
		IncidentDescription: req.IncidentDescription,
		ClaimAmount:         req.ClaimAmount,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
