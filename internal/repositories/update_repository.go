// internal/repositories/update_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// updateRepository implements UpdateRepository.
type updateRepository struct {
	*BaseRepository
}

// NewUpdateRepository creates a new instance of UpdateRepository.
func NewUpdateRepository(db *sql.DB, logger *zap.Logger) UpdateRepository {
	return &updateRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// Insert writes a location update inside the publishing transaction.
func (r *updateRepository) Insert(ctx context.Context, tx events.Tx, update *models.LocationUpdate) error {
	query := `
		INSERT INTO location_updates (
			id, trip_id, lat, lng, note, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := tx.ExecContext(ctx, query,
		update.ID, update.TripID, update.Lat, update.Lng,
		update.Note, update.RecordedAt,
	); err != nil {
		r.GetLogger().Error("Failed to insert location update",
			zap.Error(err),
			zap.String("trip_id", update.TripID.String()),
		)
		return fmt.Errorf("failed to insert location update: %w", err)
	}

	return nil
}

// CountByTrip counts the trip's updates as the transaction sees them.
func (r *updateRepository) CountByTrip(ctx context.Context, tx events.Tx, tripID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM location_updates WHERE trip_id = $1`, tripID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count updates: %w", err)
	}
	return count, nil
}

// ListByTrip returns the trip's updates in recording order.
func (r *updateRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.LocationUpdate, error) {
	query := `
		SELECT id, trip_id, lat, lng, note, recorded_at
		FROM location_updates
		WHERE trip_id = $1
		ORDER BY recorded_at ASC, id ASC`

	rows, err := r.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list updates: %w", err)
	}
	defer rows.Close()

	var updates []models.LocationUpdate
	for rows.Next() {
		var u models.LocationUpdate
		if err := rows.Scan(&u.ID, &u.TripID, &u.Lat, &u.Lng, &u.Note, &u.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan update: %w", err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate updates: %w", err)
	}

	return updates, nil
}
