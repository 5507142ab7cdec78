// internal/repositories/trip_repository.go
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// tripRepository implements TripRepository.
type tripRepository struct {
	*BaseRepository
}

// NewTripRepository creates a new instance of TripRepository.
func NewTripRepository(db *sql.DB, logger *zap.Logger) TripRepository {
	return &tripRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// Insert writes a new trip row inside the publishing transaction.
func (r *tripRepository) Insert(ctx context.Context, tx events.Tx, trip *models.Trip) error {
	query := `
		INSERT INTO trips (
			id, user_id, title, description, started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)`

	if _, err := tx.ExecContext(ctx, query,
		trip.ID, trip.UserID, trip.Title, trip.Description,
		trip.StartedAt, trip.CreatedAt,
	); err != nil {
		r.GetLogger().Error("Failed to insert trip",
			zap.Error(err),
			zap.String("trip_id", trip.ID.String()),
			zap.String("user_id", trip.UserID.String()),
		)
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	return nil
}

// InsertSettings writes the trip's settings row in the same transaction
// as the trip itself.
func (r *tripRepository) InsertSettings(ctx context.Context, tx events.Tx, settings *models.TripSettings) error {
	query := `
		INSERT INTO trip_settings (
			trip_id, visibility, comments_enabled, auto_route_snapping, created_at
		) VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.ExecContext(ctx, query,
		settings.TripID, settings.Visibility, settings.CommentsEnabled,
		settings.AutoRouteSnapping, settings.CreatedAt,
	); err != nil {
		r.GetLogger().Error("Failed to insert trip settings",
			zap.Error(err),
			zap.String("trip_id", settings.TripID.String()),
		)
		return fmt.Errorf("failed to insert trip settings: %w", err)
	}

	return nil
}

// Exists reports whether the trip is visible to the transaction,
// including rows written earlier in the same transaction.
func (r *tripRepository) Exists(ctx context.Context, tx events.Tx, tripID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, tripID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trip existence: %w", err)
	}
	return exists, nil
}

// TouchMetadata refreshes the trip's updated_at column. Runs deferred,
// after sibling handlers have written the rows it accounts for.
func (r *tripRepository) TouchMetadata(ctx context.Context, tx events.Tx, tripID uuid.UUID, at time.Time) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE trips SET updated_at = $2 WHERE id = $1`, tripID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to touch trip metadata: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	return nil
}

// GetByID retrieves a trip by ID from the pool.
func (r *tripRepository) GetByID(ctx context.Context, tripID uuid.UUID) (*models.Trip, error) {
	query := `
		SELECT id, user_id, title, description, started_at,
		       encoded_polyline, polyline_updated_at, created_at, updated_at
		FROM trips
		WHERE id = $1`

	var trip models.Trip
	err := r.QueryRowContext(ctx, query, tripID).Scan(
		&trip.ID, &trip.UserID, &trip.Title, &trip.Description, &trip.StartedAt,
		&trip.EncodedPolyline, &trip.PolylineUpdatedAt, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &trip, nil
}

// UpdatePolyline persists a freshly encoded polyline. Called from the
// routing side effect, outside any pipeline transaction.
func (r *tripRepository) UpdatePolyline(ctx context.Context, tripID uuid.UUID, encoded string, updatedAt time.Time) error {
	result, err := r.ExecContext(ctx,
		`UPDATE trips SET encoded_polyline = $2, polyline_updated_at = $3 WHERE id = $1`,
		tripID, encoded, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update polyline: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}

	r.GetLogger().Debug("Polyline persisted",
		zap.String("trip_id", tripID.String()),
		zap.Int("encoded_len", len(encoded)),
	)
	return nil
}
