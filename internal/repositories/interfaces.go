// internal/repositories/interfaces.go
package repositories

import (
	"context"
	"time"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"github.com/google/uuid"
)

// Write methods take the transaction handle explicitly: they are called
// from event handlers running inside the pipeline's transaction. Read
// methods without a Tx parameter run on the pool and see committed
// state only.

// ===============================
// CORE REPOSITORY INTERFACES
// ===============================

// TripRepository defines the contract for trip data operations.
type TripRepository interface {
	Insert(ctx context.Context, tx events.Tx, trip *models.Trip) error
	InsertSettings(ctx context.Context, tx events.Tx, settings *models.TripSettings) error
	Exists(ctx context.Context, tx events.Tx, tripID uuid.UUID) (bool, error)
	TouchMetadata(ctx context.Context, tx events.Tx, tripID uuid.UUID, at time.Time) error

	GetByID(ctx context.Context, tripID uuid.UUID) (*models.Trip, error)
	UpdatePolyline(ctx context.Context, tripID uuid.UUID, encoded string, updatedAt time.Time) error
}

// UpdateRepository defines the contract for location update operations.
type UpdateRepository interface {
	Insert(ctx context.Context, tx events.Tx, update *models.LocationUpdate) error
	CountByTrip(ctx context.Context, tx events.Tx, tripID uuid.UUID) (int, error)

	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.LocationUpdate, error)
}

// CommentRepository defines the contract for comment operations.
type CommentRepository interface {
	Insert(ctx context.Context, tx events.Tx, comment *models.Comment) error
}

// SocialRepository defines the contract for the social graph: friend
// requests, friendship links, and follows.
type SocialRepository interface {
	GetFriendRequest(ctx context.Context, tx events.Tx, requestID uuid.UUID) (*models.FriendRequest, error)
	MarkRequestAccepted(ctx context.Context, tx events.Tx, requestID uuid.UUID, respondedAt time.Time) error
	InsertFriendship(ctx context.Context, tx events.Tx, friendship *models.Friendship) error
	InsertFollow(ctx context.Context, tx events.Tx, follow *models.Follow) error

	CountFriends(ctx context.Context, userID uuid.UUID) (int, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int, error)
}

// AchievementRepository defines the contract for the achievement catalog
// and unlock records. Unlock rows are insert-only.
type AchievementRepository interface {
	ResolveOrCreate(ctx context.Context, tx events.Tx, spec models.AchievementSpec) (*models.Achievement, error)
	UnlockExists(ctx context.Context, tx events.Tx, userID uuid.UUID, achType models.AchievementType, tripID *uuid.UUID) (bool, error)
	InsertUnlock(ctx context.Context, tx events.Tx, unlock *models.UnlockedAchievement) error
}
