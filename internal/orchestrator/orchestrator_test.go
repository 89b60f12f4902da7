package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsgate/internal/audit"
	"claimsgate/internal/events"
	"claimsgate/internal/ledger"
	"claimsgate/internal/ledger/ledgertest"
	"claimsgate/internal/risk"
	"claimsgate/internal/warranty"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
)

type fixture struct {
	orch   *Orchestrator
	audit  *audit.Service
	bus    *events.MemoryBus
	ledger *ledgertest.MemoryLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditSvc := audit.NewService(audit.NewInMemoryStore(), log, nil)
	bus := events.NewMemoryBus()
	mem := ledgertest.NewMemoryLedger()
	detector := warranty.NewDetector(warranty.NewInMemoryStore(), log)

	return &fixture{
		orch:   New(ledgertest.FixtureVerifier{}, auditSvc, detector, bus, mem, "claimsgate-test", log, nil),
		audit:  auditSvc,
		bus:    bus,
		ledger: mem,
	}
}

func submission(t *testing.T, assetID string) (claimID string, raw []byte) {
	t.Helper()
	claimID = uuid.NewString()
	raw, err := json.Marshal(map[string]any{
		"id":               claimID,
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
	})
	require.NoError(t, err)
	return claimID, raw
}

func TestSubmit_GoldenPath(t *testing.T) {
	f := newFixture(t)
	claimID, raw := submission(t, "asset_clean_1")

	outcome, err := f.orch.Submit(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, claimID, outcome.ClaimID)
	assert.Equal(t, "PAY", outcome.Decision)
	assert.Equal(t, risk.BaseScore, outcome.Score)
	assert.Equal(t, []string{risk.RationaleClean}, outcome.Rationale)
	assert.Len(t, outcome.Seal, 64)
	require.NotNil(t, outcome.DualDip)
	assert.Equal(t, warranty.RiskNone, outcome.DualDip.RiskLevel)

	// The sealed record is retrievable and matches the outcome.
	entry, err := f.audit.GetRecord(context.Background(), mustClaimID(t, claimID))
	require.NoError(t, err)
	assert.Equal(t, outcome.Seal, entry.Seal)

	// Canonical intake and settlement events landed on the ledger.
	types := eventTypes(f.ledger.Events())
	assert.Equal(t, []string{ledger.EventClaimOpened, ledger.EventClaimSettled}, types)

	// Intake and settlement notifications went out on the bus.
	published := f.bus.Published()
	require.Len(t, published, 2)
	assert.Equal(t, events.TypeClaimCreated, published[0].Type)
	assert.Equal(t, events.TypeClaimSettled, published[1].Type)
}

func TestSubmit_StolenAssetDenied(t *testing.T) {
	f := newFixture(t)
	_, raw := submission(t, ledgertest.PrefixStolen+"7")

	outcome, err := f.orch.Submit(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "DENY", outcome.Decision)
	assert.Equal(t, 0, outcome.Score)
	assert.Equal(t, []string{risk.RationaleLedgerMismatch}, outcome.Rationale)
}

func TestSubmit_ProvenanceGapDenied(t *testing.T) {
	f := newFixture(t)
	_, raw := submission(t, ledgertest.PrefixGap+"7")

	outcome, err := f.orch.Submit(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "DENY", outcome.Decision)
	assert.Equal(t, risk.BaseScore-risk.OwnershipGapPenalty, outcome.Score)
	assert.Equal(t, []string{risk.RationaleProvenanceGap}, outcome.Rationale)
}

func TestSubmit_InvalidPayloadRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Submit(context.Background(), []byte(`{"id": "nope"}`))
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))

	// Nothing reached the ledger or the bus.
	assert.Empty(t, f.ledger.Events())
	assert.Empty(t, f.bus.Published())
}

// Verification failure aborts before any decision is sealed: fail closed.
func TestSubmit_LedgerOutageFailsClosed(t *testing.T) {
	f := newFixture(t)
	claimID, raw := submission(t, ledgertest.PrefixUnstable+"7")

	_, err := f.orch.Submit(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeBadGateway))

	sealed, err := f.audit.IsSealed(context.Background(), mustClaimID(t, claimID))
	require.NoError(t, err)
	assert.False(t, sealed)
}

// The canonical intake write is fail-closed: without it there is nothing to
// adjudicate.
func TestSubmit_IntakeWriteFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.ledger.FailTypes = map[string]bool{ledger.EventClaimOpened: true}
	claimID, raw := submission(t, "asset_clean_2")

	_, err := f.orch.Submit(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeBadGateway))

	sealed, err := f.audit.IsSealed(context.Background(), mustClaimID(t, claimID))
	require.NoError(t, err)
	assert.False(t, sealed)
}

func TestSubmit_DuplicateClaimConflicts(t *testing.T) {
	f := newFixture(t)
	_, raw := submission(t, "asset_clean_3")

	_, err := f.orch.Submit(context.Background(), raw)
	require.NoError(t, err)

	_, err = f.orch.Submit(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeConflict))
}

// Bus failures never affect the decision: notifications are best-effort.
func TestSubmit_BusFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.bus.FailNext = assert.AnError
	_, raw := submission(t, "asset_clean_4")

	outcome, err := f.orch.Submit(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "PAY", outcome.Decision)
}

// A settlement ledger failure does not reverse the sealed decision.
func TestSubmit_SettlementWriteFailureTolerated(t *testing.T) {
	f := newFixture(t)
	f.ledger.FailTypes = map[string]bool{ledger.EventClaimSettled: true}
	claimID, raw := submission(t, "asset_clean_5")

	outcome, err := f.orch.Submit(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "PAY", outcome.Decision)

	sealed, err := f.audit.IsSealed(context.Background(), mustClaimID(t, claimID))
	require.NoError(t, err)
	assert.True(t, sealed)
}

func mustClaimID(t *testing.T, raw string) domain.ClaimID {
	t.Helper()
	parsed, err := domain.ParseClaimID(raw)
	require.NoError(t, err)
	return parsed
}

func eventTypes(envs []ledger.EventEnvelope) []string {
	types := make([]string, 0, len(envs))
	for _, e := range envs {
		types = append(types, e.EventType)
	}
	return types
}
