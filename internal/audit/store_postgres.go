package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"claimsgate/pkg/domain"
	"claimsgate/pkg/platform/sentinel"
)

// PostgresStore persists audit entries durably. The unique constraint on
// claim_id plus ON CONFLICT DO NOTHING gives the atomic check-and-insert
// the Store contract requires without advisory locks.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL the store expects. Applied by migrations in deployment;
// exposed so integration tests can create the table themselves.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	claim_id     UUID PRIMARY KEY,
	record       JSONB NOT NULL,
	seal         TEXT NOT NULL,
	committed_at TIMESTAMPTZ NOT NULL
)`

func (s *PostgresStore) PutIfAbsent(ctx context.Context, entry AuditEntry) error {
	record, err := json.Marshal(entry.Record)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (claim_id, record, seal, committed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (claim_id) DO NOTHING`,
		uuid.UUID(entry.Record.ClaimID), record, entry.Seal, entry.CommittedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if inserted == 0 {
		return fmt.Errorf("audit entry for claim %s: %w", entry.Record.ClaimID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, claimID domain.ClaimID) (AuditEntry, error) {
	var (
		record      []byte
		seal        string
		committedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT record, seal, committed_at FROM audit_entries WHERE claim_id = $1`,
		uuid.UUID(claimID)).Scan(&record, &seal, &committedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AuditEntry{}, fmt.Errorf("audit entry for claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	if err != nil {
		return AuditEntry{}, fmt.Errorf("select audit entry: %w", err)
	}

	var entry AuditEntry
	if err := json.Unmarshal(record, &entry.Record); err != nil {
		return AuditEntry{}, fmt.Errorf("unmarshal decision record: %w", err)
	}
	entry.Seal = seal
	if committedAt.Valid {
		entry.CommittedAt = committedAt.Time
	}
	return entry, nil
}
