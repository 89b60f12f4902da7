package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsgate/internal/ledger"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
)

func newTestRecorder() (*Recorder, *MemoryBus) {
	bus := NewMemoryBus()
	rec := NewRecorder(NewMemoryIdempotencyStore(), bus, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return rec, bus
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	rec, bus := newTestRecorder()
	claimID := domain.ClaimID(uuid.New())

	result, err := rec.Record(ctx, claimID, "DAMAGE_ASSESSED", map[string]any{"severity": 7}, "key-1")
	require.NoError(t, err)

	assert.Equal(t, StatusRecorded, result.Status)
	assert.Equal(t, "DAMAGE_ASSESSED", result.EventType)
	assert.Equal(t, "key-1", result.IdempotencyKey)
	assert.NotEmpty(t, result.EventID)

	published := bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, TypeLifecycle, published[0].Type)
	assert.Equal(t, claimID.String(), published[0].Subject)
}

// A replay returns the original result, marked as already processed, and
// does not publish a second bus event.
func TestRecord_Replay(t *testing.T) {
	ctx := context.Background()
	rec, bus := newTestRecorder()
	claimID := domain.ClaimID(uuid.New())

	first, err := rec.Record(ctx, claimID, "DAMAGE_ASSESSED", map[string]any{"severity": 7}, "key-replay")
	require.NoError(t, err)

	second, err := rec.Record(ctx, claimID, "DAMAGE_ASSESSED", map[string]any{"severity": 9}, "key-replay")
	require.NoError(t, err)

	assert.Equal(t, StatusAlreadyProcessed, second.Status)
	assert.Equal(t, first.EventID, second.EventID)
	assert.Equal(t, first.RecordedAt.UTC(), second.RecordedAt.UTC())
	// The replay's divergent payload is discarded in favor of the original.
	assert.Equal(t, float64(7), second.Payload["severity"])

	assert.Len(t, bus.Published(), 1)
}

func TestRecord_DerivedKey(t *testing.T) {
	ctx := context.Background()
	rec, _ := newTestRecorder()
	claimID := domain.ClaimID(uuid.New())

	first, err := rec.Record(ctx, claimID, "PAYOUT_RELEASED", nil, "")
	require.NoError(t, err)
	assert.Equal(t, ledger.IdempotencyKey("PAYOUT_RELEASED", claimID.String()), first.IdempotencyKey)

	// Unkeyed retries of the same transition still deduplicate.
	second, err := rec.Record(ctx, claimID, "PAYOUT_RELEASED", nil, "")
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyProcessed, second.Status)
}

func TestRecord_Validation(t *testing.T) {
	rec, _ := newTestRecorder()
	_, err := rec.Record(context.Background(), domain.ClaimID(uuid.New()), "", nil, "")
	assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
}

// A bus failure never fails the recording: the idempotency store is the
// authoritative fact.
func TestRecord_BusFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()
	bus.FailNext = errors.New("broker down")
	rec := NewRecorder(NewMemoryIdempotencyStore(), bus, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := rec.Record(ctx, domain.ClaimID(uuid.New()), "DAMAGE_ASSESSED", nil, "key-x")
	require.NoError(t, err)
	assert.Equal(t, StatusRecorded, result.Status)
}

// The replay-detection window is a tunable: past it, the same key is
// reprocessed as a fresh event.
func TestRecord_ConfiguredResultTTL(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()
	rec := NewRecorder(NewMemoryIdempotencyStore(), bus, 10*time.Millisecond,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	claimID := domain.ClaimID(uuid.New())

	first, err := rec.Record(ctx, claimID, "DAMAGE_ASSESSED", nil, "key-ttl")
	require.NoError(t, err)
	require.Equal(t, StatusRecorded, first.Status)

	time.Sleep(20 * time.Millisecond)

	second, err := rec.Record(ctx, claimID, "DAMAGE_ASSESSED", nil, "key-ttl")
	require.NoError(t, err)
	assert.Equal(t, StatusRecorded, second.Status)
	assert.NotEqual(t, first.EventID, second.EventID)
	assert.Len(t, bus.Published(), 2)
}

func TestMemoryIdempotencyStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore()

	_, inserted, err := store.PutIfAbsent(ctx, "k", []byte("v1"), 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, inserted)

	stored, inserted, err := store.PutIfAbsent(ctx, "k", []byte("v2"), 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, []byte("v1"), stored)

	time.Sleep(20 * time.Millisecond)

	stored, inserted, err = store.PutIfAbsent(ctx, "k", []byte("v3"), time.Minute)
	require.NoError(t, err)
	assert.True(t, inserted, "expired key should accept a new value")
	assert.Equal(t, []byte("v3"), stored)
}
