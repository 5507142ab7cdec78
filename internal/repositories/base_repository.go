package repositories

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BaseRepository provides pool-side query helpers with slow-query
// logging. Transactional writes bypass it and use the handler's Tx
// directly.
type BaseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBaseRepository creates a new base repository.
func NewBaseRepository(db *sql.DB, logger *zap.Logger) *BaseRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseRepository{
		db:     db,
		logger: logger,
	}
}

// ===============================
// CORE DATABASE OPERATIONS
// ===============================

// ExecContext executes a pool-side statement with slow-query logging.
func (r *BaseRepository) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, args...)

	r.observe(query, time.Since(start), err)
	return result, err
}

// QueryContext executes a pool-side query that returns rows.
func (r *BaseRepository) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)

	r.observe(query, time.Since(start), err)
	return rows, err
}

// QueryRowContext executes a pool-side query expected to return one row.
func (r *BaseRepository) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, query, args...)
}

// GetLogger returns the repository logger.
func (r *BaseRepository) GetLogger() *zap.Logger {
	return r.logger
}

func (r *BaseRepository) observe(query string, duration time.Duration, err error) {
	if duration > 100*time.Millisecond {
		r.logger.Warn("Slow query detected",
			zap.String("query", truncateQuery(query)),
			zap.Duration("duration", duration),
		)
	}
	if err != nil && err != sql.ErrNoRows {
		r.logger.Error("Query execution failed",
			zap.String("query", truncateQuery(query)),
			zap.Error(err),
		)
	}
}

func truncateQuery(query string) string {
	flat := strings.Join(strings.Fields(query), " ")
	if len(flat) > 120 {
		return flat[:120] + "..."
	}
	return flat
}
