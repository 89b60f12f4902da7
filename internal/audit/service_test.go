package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService(NewInMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func payRecord(claimID domain.ClaimID) DecisionRecord {
	return DecisionRecord{
		ClaimID:         claimID,
		Decision:        domain.DecisionPay,
		ConfidenceScore: 1.0,
		Rationale:       []string{"All Checks Passed"},
		EvidenceChain:   []string{},
		FinalizedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCommit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	claimID := domain.ClaimID(uuid.New())

	seal, err := svc.Commit(ctx, payRecord(claimID))
	require.NoError(t, err)
	assert.Len(t, seal, 64)

	entry, err := svc.GetRecord(ctx, claimID)
	require.NoError(t, err)
	assert.Equal(t, seal, entry.Seal)
	assert.Equal(t, domain.DecisionPay, entry.Record.Decision)
}

func TestCommit_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("missing claim id", func(t *testing.T) {
		record := payRecord(domain.ClaimID(uuid.New()))
		record.ClaimID = domain.ClaimID{}
		_, err := svc.Commit(ctx, record)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("unknown decision", func(t *testing.T) {
		record := payRecord(domain.ClaimID(uuid.New()))
		record.Decision = domain.Decision("MAYBE")
		_, err := svc.Commit(ctx, record)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})
}

// A second commit for the same claim is a conflict, never an overwrite —
// regardless of whether the attempted decision differs.
func TestCommit_DuplicateRejected(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	claimID := domain.ClaimID(uuid.New())

	originalSeal, err := svc.Commit(ctx, payRecord(claimID))
	require.NoError(t, err)

	duplicate := payRecord(claimID)
	duplicate.Decision = domain.DecisionDeny
	duplicate.Rationale = []string{"Ledger Mismatch"}
	_, err = svc.Commit(ctx, duplicate)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeConflict))

	entry, err := svc.GetRecord(ctx, claimID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionPay, entry.Record.Decision)
	assert.Equal(t, originalSeal, entry.Seal)
}

func TestSeal_Stability(t *testing.T) {
	record := payRecord(domain.ClaimID(uuid.New()))

	a, err := Seal(record)
	require.NoError(t, err)
	b, err := Seal(record)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	t.Run("timezone-equal times seal identically", func(t *testing.T) {
		shifted := record
		shifted.FinalizedAt = record.FinalizedAt.In(time.FixedZone("CET", 3600))
		c, err := Seal(shifted)
		require.NoError(t, err)
		assert.Equal(t, a, c)
	})

	t.Run("any field change breaks the seal", func(t *testing.T) {
		changed := record
		changed.ConfidenceScore = 0.99
		d, err := Seal(changed)
		require.NoError(t, err)
		assert.NotEqual(t, a, d)
	})
}

func TestIsSealed(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	claimID := domain.ClaimID(uuid.New())

	sealed, err := svc.IsSealed(ctx, claimID)
	require.NoError(t, err)
	assert.False(t, sealed)

	_, err = svc.Commit(ctx, payRecord(claimID))
	require.NoError(t, err)

	sealed, err = svc.IsSealed(ctx, claimID)
	require.NoError(t, err)
	assert.True(t, sealed)
}
