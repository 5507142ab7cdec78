// internal/repositories/achievement_repository.go
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

// achievementRepository implements AchievementRepository.
type achievementRepository struct {
	*BaseRepository
}

// NewAchievementRepository creates a new instance of AchievementRepository.
func NewAchievementRepository(db *sql.DB, logger *zap.Logger) AchievementRepository {
	return &achievementRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// ResolveOrCreate returns the catalog row for the spec, creating it
// lazily on first unlock. The upsert keeps concurrent first unlocks of
// the same type from racing on the insert.
func (r *achievementRepository) ResolveOrCreate(ctx context.Context, tx events.Tx, spec models.AchievementSpec) (*models.Achievement, error) {
	query := `
		INSERT INTO achievements (
			id, type, name, description, threshold_value, category, enabled, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
		ON CONFLICT (type) DO UPDATE SET type = EXCLUDED.type
		RETURNING id, type, name, description, threshold_value, category, enabled, created_at`

	var ach models.Achievement
	err := tx.QueryRowContext(ctx, query,
		uuid.New(), spec.Type, spec.Name, spec.Description,
		spec.Threshold, spec.Category,
	).Scan(
		&ach.ID, &ach.Type, &ach.Name, &ach.Description,
		&ach.ThresholdValue, &ach.Category, &ach.Enabled, &ach.CreatedAt,
	)
	if err != nil {
		r.GetLogger().Error("Failed to resolve achievement",
			zap.Error(err),
			zap.String("type", string(spec.Type)),
		)
		return nil, fmt.Errorf("failed to resolve achievement: %w", err)
	}

	return &ach, nil
}

// UnlockExists reports whether an unlock row already exists for this
// subject, type, and scope. A NULL trip_id matches user-scoped rows only.
func (r *achievementRepository) UnlockExists(ctx context.Context, tx events.Tx, userID uuid.UUID, achType models.AchievementType, tripID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM unlocked_achievements ua
			INNER JOIN achievements a ON ua.achievement_id = a.id
			WHERE ua.user_id = $1
			  AND a.type = $2
			  AND ua.trip_id IS NOT DISTINCT FROM $3
		)`

	var exists bool
	if err := tx.QueryRowContext(ctx, query, userID, achType, tripID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check unlock existence: %w", err)
	}
	return exists, nil
}

// InsertUnlock writes an unlock record. The partial unique indexes on
// (user_id, achievement_id, trip_id) make a duplicate insert fail loudly
// instead of silently double-unlocking.
func (r *achievementRepository) InsertUnlock(ctx context.Context, tx events.Tx, unlock *models.UnlockedAchievement) error {
	query := `
		INSERT INTO unlocked_achievements (
			id, user_id, achievement_id, trip_id, value_achieved, unlocked_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := tx.ExecContext(ctx, query,
		unlock.ID, unlock.UserID, unlock.AchievementID,
		unlock.TripID, unlock.ValueAchieved, unlock.UnlockedAt,
	); err != nil {
		r.GetLogger().Error("Failed to insert unlock",
			zap.Error(err),
			zap.String("user_id", unlock.UserID.String()),
			zap.String("achievement_id", unlock.AchievementID.String()),
		)
		return fmt.Errorf("failed to insert unlock: %w", err)
	}

	return nil
}
