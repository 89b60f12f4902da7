// Package httptransport is the thin HTTP layer. Handlers decode, delegate
// to domain services, and translate errors; business logic never lives
// here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"claimsgate/internal/audit"
	"claimsgate/internal/events"
	"claimsgate/internal/orchestrator"
	"claimsgate/internal/provenance"
	"claimsgate/internal/salvage"
	"claimsgate/internal/warranty"
	"claimsgate/pkg/platform/httputil"
	"claimsgate/pkg/platform/middleware/correlation"
	"claimsgate/pkg/platform/middleware/requesttime"
)

// Handler wires all public endpoints to their services.
type Handler struct {
	pipeline   *orchestrator.Orchestrator
	audit      *audit.Service
	recorder   *events.Recorder
	detector   *warranty.Detector
	warranties warranty.Store
	salvage    *salvage.Service
	provenance *provenance.Service
	logger     *slog.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(
	pipeline *orchestrator.Orchestrator,
	auditSvc *audit.Service,
	recorder *events.Recorder,
	detector *warranty.Detector,
	warranties warranty.Store,
	salvageSvc *salvage.Service,
	provenanceSvc *provenance.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		pipeline:   pipeline,
		audit:      auditSvc,
		recorder:   recorder,
		detector:   detector,
		warranties: warranties,
		salvage:    salvageSvc,
		provenance: provenanceSvc,
		logger:     logger,
	}
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(correlation.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/claims", func(r chi.Router) {
		r.Post("/", h.HandleSubmitClaim)
		r.Get("/{claimID}/status", h.HandleClaimStatus)
		r.Post("/{claimID}/events", h.HandleRecordEvent)
		r.Post("/{claimID}/dual-dip", h.HandleDualDip)
		r.Post("/{claimID}/salvage", h.HandleCreateManifest)
	})

	r.Route("/salvage", func(r chi.Router) {
		r.Get("/{manifestID}", h.HandleGetManifest)
		r.Post("/{manifestID}/schedule-pickup", h.HandleSchedulePickup)
		r.Post("/{manifestID}/list-on-bids", h.HandleListOnBids)
		r.Post("/{manifestID}/record-sale", h.HandleRecordSale)
		r.Post("/{manifestID}/cancel", h.HandleCancelManifest)
	})

	r.Route("/warranties", func(r chi.Router) {
		r.Post("/", h.HandleRegisterWarranty)
		r.Post("/{warrantyID}/claims", h.HandleAddWarrantyClaim)
	})

	r.Get("/items/{itemID}/preloss-provenance", h.HandleProvenance)

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
