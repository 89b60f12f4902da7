package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsgate/internal/audit"
	"claimsgate/internal/events"
	"claimsgate/internal/ledger/ledgertest"
	"claimsgate/internal/orchestrator"
	"claimsgate/internal/provenance"
	"claimsgate/internal/salvage"
	"claimsgate/internal/warranty"
	"claimsgate/pkg/domain"
	"claimsgate/pkg/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *audit.Service) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditSvc := audit.NewService(audit.NewInMemoryStore(), log, nil)
	bus := events.NewMemoryBus()
	mem := ledgertest.NewMemoryLedger()
	warrantyStore := warranty.NewInMemoryStore()
	detector := warranty.NewDetector(warrantyStore, log)

	pipeline := orchestrator.New(ledgertest.FixtureVerifier{}, auditSvc, detector, bus, mem, "claimsgate-test", log, nil)
	recorder := events.NewRecorder(events.NewMemoryIdempotencyStore(), bus, 0, log)
	salvageSvc := salvage.NewService(salvage.NewInMemoryStore(), auditSvc, nil, "claimsgate-test", log)
	provenanceSvc := provenance.NewService(nil, mem, log)

	return NewHandler(pipeline, auditSvc, recorder, detector, warrantyStore, salvageSvc, provenanceSvc, log), auditSvc
}

func newTestRouter(t *testing.T) (http.Handler, *audit.Service) {
	t.Helper()
	h, auditSvc := newTestHandler(t)
	return NewRouter(h), auditSvc
}

func submissionBody(assetID string) map[string]any {
	return map[string]any{
		"id":               uuid.NewString(),
		"intake_timestamp": "2026-03-01T10:00:00Z",
		"policy_ref":       "POL-2026-00042",
		"claimant_id":      uuid.NewString(),
		"asset_id":         assetID,
		"claimed_amount":   850.0,
		"incident": map[string]any{
			"type":      "THEFT",
			"location":  map[string]any{"lat": 52.37, "lon": 4.89},
			"severity":  6,
			"narrative": "bike stolen from the station rack overnight",
		},
	}
}

func TestHandleSubmitClaim(t *testing.T) {
	t.Run("clean submission pays out", func(t *testing.T) {
		router, _ := newTestRouter(t)
		body := submissionBody("asset_clean")

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claims", body))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		outcome := testutil.UnmarshalResponse[orchestrator.Outcome](t, rr)
		assert.Equal(t, body["id"], outcome.ClaimID)
		assert.Equal(t, "PAY", outcome.Decision)
		assert.Equal(t, 100, outcome.Score)
		assert.NotEmpty(t, outcome.CorrelationID)
		assert.Equal(t, rr.Header().Get("X-Correlation-ID"), outcome.CorrelationID)
	})

	t.Run("invalid submission returns field detail", func(t *testing.T) {
		router, _ := newTestRouter(t)
		body := submissionBody("asset_clean")
		delete(body, "policy_ref")

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claims", body))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
		resp := testutil.UnmarshalErrorResponse(t, rr)
		assert.Contains(t, resp.Fields, "policy_ref")
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/claims", `{`))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("resubmission conflicts", func(t *testing.T) {
		router, _ := newTestRouter(t)
		body := submissionBody("asset_clean")

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claims", body))
		testutil.AssertStatus(t, rr, http.StatusCreated)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claims", body))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("ledger outage returns bad gateway", func(t *testing.T) {
		router, _ := newTestRouter(t)
		body := submissionBody(ledgertest.PrefixUnstable + "1")

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claims", body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadGateway, "bad_gateway")
	})
}

func TestHandleClaimStatus(t *testing.T) {
	router, auditSvc := newTestRouter(t)

	t.Run("sealed claim", func(t *testing.T) {
		claimID := domain.ClaimID(uuid.New())
		_, err := auditSvc.Commit(context.Background(), audit.DecisionRecord{
			ClaimID:         claimID,
			Decision:        domain.DecisionPay,
			ConfidenceScore: 1.0,
			Rationale:       []string{"All Checks Passed"},
			FinalizedAt:     time.Now().UTC(),
		})
		require.NoError(t, err)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/claims/"+claimID.String()+"/status"))
		testutil.AssertStatusOK(t, rr)

		resp := testutil.UnmarshalResponse[ClaimStatusResponse](t, rr)
		assert.Equal(t, claimID.String(), resp.ClaimID)
		assert.Equal(t, "PAY", resp.Decision)
		assert.NotEmpty(t, resp.Seal)
	})

	t.Run("unknown claim", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/claims/"+uuid.NewString()+"/status"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("malformed claim id", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/claims/not-a-uuid/status"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestHandleRecordEvent(t *testing.T) {
	router, _ := newTestRouter(t)
	claimID := uuid.NewString()

	body := map[string]any{
		"event_type":      "DAMAGE_ASSESSED",
		"payload":         map[string]any{"severity": 7},
		"idempotency_key": "idem:DAMAGE_ASSESSED:" + claimID,
	}

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claims/"+claimID+"/events", body))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	first := testutil.UnmarshalResponse[events.RecordResult](t, rr)
	assert.Equal(t, events.StatusRecorded, first.Status)

	// Replay: same key, original result, 200 instead of 201.
	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claims/"+claimID+"/events", body))
	testutil.AssertStatusOK(t, rr)
	second := testutil.UnmarshalResponse[events.RecordResult](t, rr)
	assert.Equal(t, events.StatusAlreadyProcessed, second.Status)
	assert.Equal(t, first.EventID, second.EventID)

	t.Run("missing event type rejected", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/claims/"+claimID+"/events", map[string]any{"payload": map[string]any{}}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

// Recorded timestamps come from the request-scoped clock, so a pinned
// clock must show up verbatim in the result.
func TestHandleRecordEvent_RequestScopedClock(t *testing.T) {
	h, _ := newTestHandler(t)
	claimID := uuid.NewString()
	pinned := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/claims/"+claimID+"/events",
		map[string]any{"event_type": "PAYOUT_RELEASED"})
	req = testutil.WithCorrelationID(req, "corr-pinned")
	req = testutil.WithRequestTime(req, pinned)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("claimID", claimID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h.HandleRecordEvent(rr, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
	result := testutil.UnmarshalResponse[events.RecordResult](t, rr)
	assert.True(t, result.RecordedAt.Equal(pinned))
}

func TestHandleDualDip(t *testing.T) {
	router, _ := newTestRouter(t)

	// Register a warranty with a compensated claim, then cross-reference.
	warrantyBody := map[string]any{
		"asset_id":   "asset_dd",
		"type":       "MANUFACTURER",
		"provider":   "Acme Devices BV",
		"expires_at": "2027-01-01T00:00:00Z",
	}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/warranties", warrantyBody))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	registered := testutil.UnmarshalResponse[warranty.Record](t, rr)

	claimBody := map[string]any{
		"filed_at":          "2026-02-25T00:00:00Z",
		"issue_description": "screen flickering with dead pixels across the display panel",
		"resolution":        "REPAIR_COMPLETED",
		"amount_paid":       400,
	}
	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/warranties/"+registered.ID.String()+"/claims", claimBody))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	ddBody := map[string]any{
		"asset_id":             "asset_dd",
		"incident_at":          "2026-03-01T10:00:00Z",
		"incident_description": "screen flickering and dead pixels on the display panel",
		"claim_amount":         900,
	}
	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
		"/claims/"+uuid.NewString()+"/dual-dip", ddBody))
	testutil.AssertStatusOK(t, rr)

	result := testutil.UnmarshalResponse[warranty.DualDipResult](t, rr)
	assert.NotEmpty(t, result.Findings)
	assert.Contains(t, []warranty.RiskLevel{warranty.RiskHigh, warranty.RiskCritical}, result.RiskLevel)
}

func TestSalvageEndpoints(t *testing.T) {
	router, auditSvc := newTestRouter(t)

	sealedClaim := func(decision domain.Decision) domain.ClaimID {
		claimID := domain.ClaimID(uuid.New())
		_, err := auditSvc.Commit(context.Background(), audit.DecisionRecord{
			ClaimID:         claimID,
			Decision:        decision,
			ConfidenceScore: 1.0,
			Rationale:       []string{"All Checks Passed"},
			FinalizedAt:     time.Now().UTC(),
		})
		require.NoError(t, err)
		return claimID
	}

	manifestBody := map[string]any{
		"items": []map[string]any{
			{"asset_id": "asset_s1", "description": "damaged frame", "estimated_value": 120},
		},
	}

	t.Run("manifest requires a PAY decision", func(t *testing.T) {
		claimID := sealedClaim(domain.DecisionDeny)
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/claims/"+claimID.String()+"/salvage", manifestBody))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "invalid_state")
	})

	t.Run("full lifecycle over HTTP", func(t *testing.T) {
		claimID := sealedClaim(domain.DecisionPay)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/claims/"+claimID.String()+"/salvage", manifestBody))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		manifest := testutil.UnmarshalResponse[salvage.Manifest](t, rr)
		assert.Equal(t, salvage.StatusDraft, manifest.Status)

		base := "/salvage/" + manifest.ID.String()
		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, base+"/schedule-pickup", nil))
		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, base+"/list-on-bids", nil))
		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, base+"/record-sale", nil))
		testutil.AssertStatusOK(t, rr)
		sold := testutil.UnmarshalResponse[salvage.Manifest](t, rr)
		assert.Equal(t, salvage.StatusSold, sold.Status)

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, base))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("illegal transition rejected", func(t *testing.T) {
		claimID := sealedClaim(domain.DecisionPay)
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/claims/"+claimID.String()+"/salvage", manifestBody))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		manifest := testutil.UnmarshalResponse[salvage.Manifest](t, rr)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/salvage/"+manifest.ID.String()+"/record-sale", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "invalid_state")
	})

	t.Run("unknown manifest", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/salvage/"+uuid.NewString()))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestHandleProvenance(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/items/asset_px/preloss-provenance"))
	testutil.AssertStatusOK(t, rr)

	report := testutil.UnmarshalResponse[provenance.Report](t, rr)
	assert.Equal(t, provenance.TierInsufficient, report.Tier)
	assert.Contains(t, report.FraudFlags, "NO_CUSTODY_HISTORY")
	assert.Equal(t, "heuristic", report.Source)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}
