// Package sqlite keeps sticky filters in a local SQLite file, for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"resultsdash/domain/core"
	"resultsdash/internal/errors"
	"resultsdash/ports"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type FilterRepository struct {
	db *sqlx.DB
}

var _ ports.FilterRepository = (*FilterRepository)(nil)

// Open opens (creating if needed) the database file at path
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.DatabaseError("failed to open sqlite", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to ping sqlite", err)
	}
	return db, nil
}

func NewFilterRepository(db *sqlx.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

func (r *FilterRepository) SaveFilter(ctx context.Context, sessionID core.SessionID, filter string) error {
	query := `
		INSERT INTO dashboard_filters (session_id, filter, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			filter = excluded.filter,
			updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, sessionID.String(), filter, time.Now().UTC()); err != nil {
		return errors.DatabaseError("failed to save filter", err)
	}
	return nil
}

func (r *FilterRepository) LoadFilter(ctx context.Context, sessionID core.SessionID) (string, bool, error) {
	var filter string
	err := r.db.GetContext(ctx, &filter, `SELECT filter FROM dashboard_filters WHERE session_id = ?`, sessionID.String())
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, errors.DatabaseError("failed to load filter", err)
	}
	return filter, true, nil
}

func (r *FilterRepository) DeleteFilter(ctx context.Context, sessionID core.SessionID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dashboard_filters WHERE session_id = ?`, sessionID.String()); err != nil {
		return errors.DatabaseError("failed to delete filter", err)
	}
	return nil
}

// Count reports how many sessions have a stored filter
func (r *FilterRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM dashboard_filters`); err != nil {
		return 0, errors.DatabaseError("failed to count filters", err)
	}
	return n, nil
}
