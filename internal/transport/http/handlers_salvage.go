package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"claimsgate/internal/salvage"
	"claimsgate/pkg/domain"
	"claimsgate/pkg/platform/httputil"
	"claimsgate/pkg/requestcontext"
)

// HandleCreateManifest handles POST /claims/{claimID}/salvage. The service
// enforces the PAY gate; this layer only shapes the request.
func (h *Handler) HandleCreateManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claimID, err := domain.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[CreateManifestRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	manifest, err := h.salvage.CreateManifest(ctx, claimID, req.DomainItems())
	if err != nil {
		h.logger.WarnContext(ctx, "manifest creation rejected",
			"claim_id", claimID,
			"correlation_id", requestcontext.CorrelationID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, manifest)
}

// HandleGetManifest handles GET /salvage/{manifestID}.
func (h *Handler) HandleGetManifest(w http.ResponseWriter, r *http.Request) {
	h.manifestOp(w, r, h.salvage.GetManifest)
}

// HandleSchedulePickup handles POST /salvage/{manifestID}/schedule-pickup.
func (h *Handler) HandleSchedulePickup(w http.ResponseWriter, r *http.Request) {
	h.manifestOp(w, r, h.salvage.SchedulePickup)
}

// HandleListOnBids handles POST /salvage/{manifestID}/list-on-bids.
func (h *Handler) HandleListOnBids(w http.ResponseWriter, r *http.Request) {
	h.manifestOp(w, r, h.salvage.ListOnBids)
}

// HandleRecordSale handles POST /salvage/{manifestID}/record-sale.
func (h *Handler) HandleRecordSale(w http.ResponseWriter, r *http.Request) {
	h.manifestOp(w, r, h.salvage.RecordSale)
}

// HandleCancelManifest handles POST /salvage/{manifestID}/cancel.
func (h *Handler) HandleCancelManifest(w http.ResponseWriter, r *http.Request) {
	h.manifestOp(w, r, h.salvage.Cancel)
}

// manifestOp is the shared shape of the id-only manifest operations: parse
// the path id, run the operation, emit the manifest or the error envelope.
func (h *Handler) manifestOp(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.ManifestID) (salvage.Manifest, error)) {
	ctx := r.Context()

	manifestID, err := domain.ParseManifestID(chi.URLParam(r, "manifestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	manifest, err := op(ctx, manifestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, manifest)
}
