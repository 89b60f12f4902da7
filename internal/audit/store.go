package audit

import (
	"context"

	"claimsgate/pkg/domain"
)

// Store is the keyed audit ledger. Implementations must provide an atomic
// per-key check-and-insert: concurrent PutIfAbsent calls for the same claim
// id resolve so exactly one succeeds and the rest observe
// sentinel.ErrConflict; different ids must not block each other. The
// existing entry is never touched on conflict.
type Store interface {
	PutIfAbsent(ctx context.Context, entry AuditEntry) error
	Get(ctx context.Context, claimID domain.ClaimID) (AuditEntry, error)
}
