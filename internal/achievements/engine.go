package achievements

import (
	"context"
	"fmt"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DataSource provides the evaluation snapshots. Reads run outside the
// unlock transaction; idempotence comes from the existence check and the
// uniqueness constraint, not from snapshot freshness.
type DataSource interface {
	TripContext(ctx context.Context, tripID uuid.UUID) (*TripContext, error)
	UserContext(ctx context.Context, userID uuid.UUID) (*UserContext, error)
}

// CatalogStore persists catalog rows and answers unlock existence
// queries inside the unlock transaction.
type CatalogStore interface {
	UnlockExists(ctx context.Context, tx events.Tx, userID uuid.UUID, achType models.AchievementType, tripID *uuid.UUID) (bool, error)
	ResolveOrCreate(ctx context.Context, tx events.Tx, spec models.AchievementSpec) (*models.Achievement, error)
}

// Engine evaluates the achievement catalog against trip and user
// metrics and publishes one unlock event per newly crossed threshold.
// Re-evaluating after an unlock is a no-op: unlock rows are never
// duplicated and never removed, even when the metric later drops below
// the threshold.
type Engine struct {
	data         DataSource
	catalog      CatalogStore
	pipeline     *events.Pipeline
	clock        events.Clock
	logger       *zap.Logger
	tripCheckers []TripChecker
	userCheckers []UserChecker
}

// NewEngine creates an achievement engine with the given checker sets.
func NewEngine(data DataSource, catalog CatalogStore, pipeline *events.Pipeline, clock events.Clock, logger *zap.Logger, tripCheckers []TripChecker, userCheckers []UserChecker) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		data:         data,
		catalog:      catalog,
		pipeline:     pipeline,
		clock:        clock,
		logger:       logger,
		tripCheckers: tripCheckers,
		userCheckers: userCheckers,
	}
}

// EvaluateTrip runs every trip-scoped checker against the trip and
// unlocks whatever thresholds its metrics have crossed. All unlocks from
// one evaluation share a single transaction.
func (e *Engine) EvaluateTrip(ctx context.Context, tripID uuid.UUID) error {
	snapshot, err := e.data.TripContext(ctx, tripID)
	if err != nil {
		return fmt.Errorf("load trip context: %w", err)
	}

	return e.pipeline.Execute(ctx, func(ctx context.Context, txn *events.Txn) error {
		for _, checker := range e.tripCheckers {
			metric := checker.Metric(snapshot)
			for _, achType := range checker.Types() {
				if err := e.unlock(ctx, txn, snapshot.Trip.UserID, &tripID, achType, metric); err != nil {
					return fmt.Errorf("checker %s: %w", checker.CheckerID(), err)
				}
			}
		}
		return nil
	})
}

// EvaluateUser runs every user-scoped checker against the user's social
// snapshot. User-scoped unlock rows carry no trip reference.
func (e *Engine) EvaluateUser(ctx context.Context, userID uuid.UUID) error {
	snapshot, err := e.data.UserContext(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user context: %w", err)
	}

	return e.pipeline.Execute(ctx, func(ctx context.Context, txn *events.Txn) error {
		for _, checker := range e.userCheckers {
			metric := checker.Metric(snapshot)
			for _, achType := range checker.Types() {
				if err := e.unlock(ctx, txn, userID, nil, achType, metric); err != nil {
					return fmt.Errorf("checker %s: %w", checker.CheckerID(), err)
				}
			}
		}
		return nil
	})
}

// unlock publishes one unlock event if the metric has crossed the
// threshold and no unlock row exists yet for this subject and scope.
func (e *Engine) unlock(ctx context.Context, txn *events.Txn, userID uuid.UUID, tripID *uuid.UUID, achType models.AchievementType, metric float64) error {
	spec, ok := models.Catalog[achType]
	if !ok {
		return fmt.Errorf("unknown achievement type %q", achType)
	}
	if metric < spec.Threshold {
		return nil
	}

	exists, err := e.catalog.UnlockExists(ctx, txn.Tx(), userID, achType, tripID)
	if err != nil {
		return fmt.Errorf("check unlock %s: %w", achType, err)
	}
	if exists {
		return nil
	}

	achievement, err := e.catalog.ResolveOrCreate(ctx, txn.Tx(), spec)
	if err != nil {
		return fmt.Errorf("resolve achievement %s: %w", achType, err)
	}
	if !achievement.Enabled {
		return nil
	}

	record := models.UnlockedAchievement{
		ID:            uuid.New(),
		UserID:        userID,
		AchievementID: achievement.ID,
		TripID:        tripID,
		ValueAchieved: metric,
		UnlockedAt:    e.clock.Now(),
	}

	e.logger.Info("Achievement unlocked",
		zap.String("user_id", userID.String()),
		zap.String("type", string(achType)),
		zap.Float64("value_achieved", metric),
	)

	return e.pipeline.Bus().Publish(ctx, txn, events.NewAchievementUnlockedEvent(record, achType, e.clock))
}
