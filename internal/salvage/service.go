package salvage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"claimsgate/internal/audit"
	"claimsgate/internal/ledger"
	"claimsgate/pkg/domain"
	derrors "claimsgate/pkg/domain-errors"
	"claimsgate/pkg/platform/sentinel"
	"claimsgate/pkg/requestcontext"
)

// Service runs the manifest lifecycle. The audit service is the gate:
// manifests are only reachable once the owning claim's sealed decision is
// PAY.
type Service struct {
	store    Store
	audit    *audit.Service
	ledger   ledger.Appender
	producer string
	logger   *slog.Logger
}

// NewService constructs the salvage service. The ledger appender is used
// best-effort for listing events; pass nil to skip ledger writes.
func NewService(store Store, auditSvc *audit.Service, appender ledger.Appender, producer string, logger *slog.Logger) *Service {
	return &Service{store: store, audit: auditSvc, ledger: appender, producer: producer, logger: logger}
}

// CreateManifest opens a DRAFT manifest for a paid claim.
func (s *Service) CreateManifest(ctx context.Context, claimID domain.ClaimID, items []Item) (Manifest, error) {
	entry, err := s.audit.GetRecord(ctx, claimID)
	if err != nil {
		if derrors.HasCode(err, derrors.CodeNotFound) {
			return Manifest{}, derrors.New(derrors.CodeInvalidState,
				fmt.Sprintf("claim %s has no sealed decision", claimID))
		}
		return Manifest{}, err
	}
	if entry.Record.Decision != domain.DecisionPay {
		return Manifest{}, derrors.New(derrors.CodeInvalidState,
			fmt.Sprintf("claim %s decision is %s; salvage requires PAY", claimID, entry.Record.Decision))
	}
	if len(items) == 0 {
		return Manifest{}, derrors.New(derrors.CodeInvalidInput, "manifest requires at least one item")
	}

	now := time.Now().UTC()
	manifest := Manifest{
		ID:        domain.ManifestID(uuid.New()),
		ClaimID:   claimID,
		Items:     items,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, manifest); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Manifest{}, derrors.Wrap(derrors.CodeConflict,
				fmt.Sprintf("claim %s already has a salvage manifest", claimID), err)
		}
		return Manifest{}, derrors.Wrap(derrors.CodeInternal, "create manifest", err)
	}
	return manifest, nil
}

// SchedulePickup moves DRAFT → PENDING_PICKUP.
func (s *Service) SchedulePickup(ctx context.Context, id domain.ManifestID) (Manifest, error) {
	return s.transition(ctx, id, StatusPendingPickup)
}

// ListOnBids moves PENDING_PICKUP → LISTED and records the listing on the
// ledger best-effort: the manifest state is authoritative, the ledger event
// is a notification.
func (s *Service) ListOnBids(ctx context.Context, id domain.ManifestID) (Manifest, error) {
	manifest, err := s.transition(ctx, id, StatusListed)
	if err != nil {
		return Manifest{}, err
	}

	if s.ledger != nil {
		env, envErr := ledger.NewEnvelope(
			ledger.EventSalvageListed,
			manifest.ClaimID.String(),
			requestcontext.CorrelationID(ctx),
			ledger.IdempotencyKey(ledger.EventSalvageListed, manifest.ID.String()),
			s.producer,
			time.Now().UTC(),
			map[string]any{"manifest_id": manifest.ID.String(), "items": len(manifest.Items)},
		)
		if envErr == nil {
			envErr = s.ledger.Append(ctx, env)
		}
		if envErr != nil {
			s.logger.WarnContext(ctx, "salvage listing ledger write failed",
				"manifest_id", manifest.ID, "error", envErr)
		}
	}
	return manifest, nil
}

// RecordSale moves LISTED → SOLD.
func (s *Service) RecordSale(ctx context.Context, id domain.ManifestID) (Manifest, error) {
	return s.transition(ctx, id, StatusSold)
}

// Cancel aborts a manifest from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, id domain.ManifestID) (Manifest, error) {
	return s.transition(ctx, id, StatusCancelled)
}

// GetManifest returns a manifest by id.
func (s *Service) GetManifest(ctx context.Context, id domain.ManifestID) (Manifest, error) {
	manifest, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Manifest{}, derrors.Wrap(derrors.CodeNotFound,
				fmt.Sprintf("manifest %s not found", id), err)
		}
		return Manifest{}, derrors.Wrap(derrors.CodeInternal, "read manifest", err)
	}
	return manifest, nil
}

func (s *Service) transition(ctx context.Context, id domain.ManifestID, to ManifestStatus) (Manifest, error) {
	manifest, err := s.GetManifest(ctx, id)
	if err != nil {
		return Manifest{}, err
	}
	if !CanTransition(manifest.Status, to) {
		return Manifest{}, derrors.New(derrors.CodeInvalidState,
			fmt.Sprintf("manifest %s cannot move %s → %s", id, manifest.Status, to))
	}
	manifest.Status = to
	manifest.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, manifest); err != nil {
		return Manifest{}, derrors.Wrap(derrors.CodeInternal, "update manifest", err)
	}
	return manifest, nil
}
