package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"claimsgate/internal/platform/metrics"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
	"claimsgate/pkg/platform/sentinel"
	"claimsgate/pkg/requestcontext"
)

// Service seals decision records into the append-only audit store.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService constructs the audit service.
func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: m}
}

// Commit seals and appends a decision record, returning the seal hash as
// proof. A second commit for the same claim id is rejected with a conflict
// error and logged as a security event — it is a tamper or duplicate
// signal, and the existing entry is never overwritten.
func (s *Service) Commit(ctx context.Context, record DecisionRecord) (string, error) {
	if record.ClaimID.IsNil() {
		return "", derrors.New(derrors.CodeInvalidInput, "decision record has no claim id")
	}
	if !record.Decision.Valid() {
		return "", derrors.New(derrors.CodeInvalidInput, "decision record has an unknown decision")
	}
	if record.FinalizedAt.IsZero() {
		record.FinalizedAt = requestcontext.Now(ctx)
	}
	if record.EvidenceChain == nil {
		record.EvidenceChain = []string{}
	}

	seal, err := Seal(record)
	if err != nil {
		return "", derrors.Wrap(derrors.CodeInternal, "seal decision record", err)
	}

	entry := AuditEntry{
		Record:      record,
		Seal:        seal,
		CommittedAt: time.Now().UTC(),
	}

	if err := s.store.PutIfAbsent(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Security event, not a plain error: someone attempted to
			// re-decide a sealed claim.
			s.logger.WarnContext(ctx, "duplicate decision commit rejected",
				"claim_id", record.ClaimID,
				"correlation_id", requestcontext.CorrelationID(ctx),
				"attempted_decision", record.Decision,
			)
			s.metrics.IncAuditConflict()
			return "", derrors.Wrap(derrors.CodeConflict,
				fmt.Sprintf("claim %s is already sealed", record.ClaimID), err)
		}
		return "", derrors.Wrap(derrors.CodeInternal, "append audit entry", err)
	}

	s.metrics.IncClaimsDecided(string(record.Decision))
	return seal, nil
}

// GetRecord returns the sealed entry for a claim.
func (s *Service) GetRecord(ctx context.Context, claimID domain.ClaimID) (AuditEntry, error) {
	entry, err := s.store.Get(ctx, claimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return AuditEntry{}, derrors.Wrap(derrors.CodeNotFound,
				fmt.Sprintf("no audit entry for claim %s", claimID), err)
		}
		return AuditEntry{}, derrors.Wrap(derrors.CodeInternal, "read audit entry", err)
	}
	return entry, nil
}

// IsSealed reports whether a claim already has a binding decision. Used by
// components that need idempotency (worker, salvage gate) so they do not
// re-derive decision state.
func (s *Service) IsSealed(ctx context.Context, claimID domain.ClaimID) (bool, error) {
	_, err := s.GetRecord(ctx, claimID)
	if err == nil {
		return true, nil
	}
	if derrors.HasCode(err, derrors.CodeNotFound) {
		return false, nil
	}
	return false, err
}
