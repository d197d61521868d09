package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrWong99/solace/internal/crisis"
)

// Schema is the SQL DDL for the checkins table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS checkins (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    risk_level   TEXT NOT NULL,
    due_at       TIMESTAMPTZ NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_checkins_pending_due ON checkins(due_at) WHERE completed_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_checkins_user ON checkins(user_id);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by PostgreSQL.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store on db. Call [PostgresStore.Migrate] before
// issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the checkins table and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("checkin: migrate: %w", err)
	}
	return nil
}

// Schedule implements [Store].
func (s *PostgresStore) Schedule(ctx context.Context, r Record) (Record, error) {
	r = prepare(r)

	const query = `
		INSERT INTO checkins (id, user_id, risk_level, due_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.Exec(ctx, query, r.ID, r.UserID, string(r.RiskLevel), r.DueAt, r.CreatedAt); err != nil {
		return Record{}, fmt.Errorf("checkin: schedule: %w", err)
	}
	return r, nil
}

// Due implements [Store].
func (s *PostgresStore) Due(ctx context.Context, before time.Time) ([]Record, error) {
	const query = `
		SELECT id, user_id, risk_level, due_at, created_at
		FROM checkins
		WHERE completed_at IS NULL AND due_at <= $1
		ORDER BY due_at`

	rows, err := s.db.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("checkin: due: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r     Record
			level string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &level, &r.DueAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("checkin: due scan: %w", err)
		}
		r.RiskLevel = crisis.RiskLevel(level)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("checkin: due: %w", err)
	}
	return out, nil
}

// Complete implements [Store].
func (s *PostgresStore) Complete(ctx context.Context, id string) error {
	const query = `UPDATE checkins SET completed_at = now() WHERE id = $1 AND completed_at IS NULL`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("checkin: complete %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}
