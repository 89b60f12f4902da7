package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
	"claimsgate/pkg/platform/httputil"
)

// HandleRegisterWarranty handles POST /warranties: feeds the per-asset
// warranty index that the dual-dip detector reads.
func (h *Handler) HandleRegisterWarranty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[RegisterWarrantyRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record := req.DomainRecord()
	if err := h.warranties.Register(ctx, record); err != nil {
		httputil.WriteError(w, derrors.Wrap(derrors.CodeConflict,
			"warranty is already registered", err))
		return
	}

	h.logger.InfoContext(ctx, "warranty registered",
		"warranty_id", record.ID,
		"asset_id", record.AssetID,
		"type", record.Type,
	)
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleAddWarrantyClaim handles POST /warranties/{warrantyID}/claims.
func (h *Handler) HandleAddWarrantyClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	warrantyID, err := domain.ParseWarrantyID(chi.URLParam(r, "warrantyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[AddWarrantyClaimRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	claim := req.DomainClaim()
	if err := h.warranties.AddClaim(ctx, warrantyID, claim); err != nil {
		httputil.WriteError(w, derrors.Wrap(derrors.CodeNotFound,
			"warranty not found", err))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, claim)
}

// HandleProvenance handles GET /items/{itemID}/preloss-provenance.
func (h *Handler) HandleProvenance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itemID, err := domain.ParseAssetID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.provenance.Score(ctx, itemID)
	if err != nil {
		h.logger.ErrorContext(ctx, "provenance scoring failed",
			"item_id", itemID,
			"error", err,
		)
		httputil.WriteError(w, derrors.Wrap(derrors.CodeBadGateway,
			"provenance assessment unavailable", err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
