package postgres

import (
	"context"
	"database/sql"
	"time"

	"resultsdash/domain/core"
	"resultsdash/internal/errors"
	"resultsdash/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// FilterRepository stores sticky dashboard filters in PostgreSQL
type FilterRepository struct {
	db *sqlx.DB
}

var _ ports.FilterRepository = (*FilterRepository)(nil)

// Open connects to the database at dsn and checks the connection
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to open postgres", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to ping postgres", err)
	}
	return db, nil
}

// NewFilterRepository creates a new filter repository
func NewFilterRepository(db *sqlx.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

// SaveFilter saves or updates the filter for a session
func (r *FilterRepository) SaveFilter(ctx context.Context, sessionID core.SessionID, filter string) error {
	query := `
		INSERT INTO dashboard_filters (session_id, filter, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET
			filter = EXCLUDED.filter,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, sessionID.String(), filter, time.Now().UTC()); err != nil {
		return errors.DatabaseError("failed to save filter", err)
	}
	return nil
}

// LoadFilter retrieves the filter for a session
func (r *FilterRepository) LoadFilter(ctx context.Context, sessionID core.SessionID) (string, bool, error) {
	var filter string
	err := r.db.GetContext(ctx, &filter, `SELECT filter FROM dashboard_filters WHERE session_id = $1`, sessionID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errors.DatabaseError("failed to load filter", err)
	}
	return filter, true, nil
}

// DeleteFilter removes the filter for a session
func (r *FilterRepository) DeleteFilter(ctx context.Context, sessionID core.SessionID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dashboard_filters WHERE session_id = $1`, sessionID.String()); err != nil {
		return errors.DatabaseError("failed to delete filter", err)
	}
	return nil
}
