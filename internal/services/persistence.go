package services

import (
	"context"
	"fmt"

	"trailhub/internal/events"
	"trailhub/internal/repositories"

	"go.uber.org/zap"
)

// RegisterPersistenceHandlers subscribes the repository writes that give
// each event its durable effect. Events are the only write path: no
// service mutates these tables directly.
//
// Every handler here runs at the immediate phase except the metadata
// refresh, which is deferred so it observes the rows its siblings wrote
// earlier in the same transaction.
func RegisterPersistenceHandlers(
	bus *events.Bus,
	trips repositories.TripRepository,
	updates repositories.UpdateRepository,
	comments repositories.CommentRepository,
	social repositories.SocialRepository,
	achievements repositories.AchievementRepository,
	logger *zap.Logger,
) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bus.Subscribe(events.TripCreated, events.PhaseImmediate, events.NewTypedHandler(
		"persist-trip",
		func(ctx context.Context, tx events.Tx, event *events.TripCreatedEvent) error {
			return trips.Insert(ctx, tx, &event.Trip)
		},
	))

	bus.Subscribe(events.TripSettingsInitialized, events.PhaseImmediate, events.NewTypedHandler(
		"persist-trip-settings",
		func(ctx context.Context, tx events.Tx, event *events.TripSettingsInitializedEvent) error {
			return trips.InsertSettings(ctx, tx, &event.Settings)
		},
	))

	bus.Subscribe(events.TripMetadataRefreshed, events.PhaseBeforeCommit, events.NewTypedHandler(
		"refresh-trip-metadata",
		func(ctx context.Context, tx events.Tx, event *events.TripMetadataRefreshedEvent) error {
			return trips.TouchMetadata(ctx, tx, event.TripID, event.GetTimestamp())
		},
	))

	// The first writer validates the parent trip; later handlers in the
	// same transaction can rely on it.
	bus.Subscribe(events.LocationUpdateRecorded, events.PhaseImmediate, events.NewTypedHandler(
		"persist-location-update",
		func(ctx context.Context, tx events.Tx, event *events.LocationUpdateRecordedEvent) error {
			exists, err := trips.Exists(ctx, tx, event.Update.TripID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("trip %s: %w", event.Update.TripID, repositories.ErrNotFound)
			}
			return updates.Insert(ctx, tx, &event.Update)
		},
	))

	bus.Subscribe(events.CommentAdded, events.PhaseImmediate, events.NewTypedHandler(
		"persist-comment",
		func(ctx context.Context, tx events.Tx, event *events.CommentAddedEvent) error {
			exists, err := trips.Exists(ctx, tx, event.Comment.TripID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("trip %s: %w", event.Comment.TripID, repositories.ErrNotFound)
			}
			return comments.Insert(ctx, tx, &event.Comment)
		},
	))

	bus.Subscribe(events.FriendRequestAccepted, events.PhaseImmediate, events.NewTypedHandler(
		"persist-request-acceptance",
		func(ctx context.Context, tx events.Tx, event *events.FriendRequestAcceptedEvent) error {
			return social.MarkRequestAccepted(ctx, tx, event.RequestID, event.GetTimestamp())
		},
	))

	bus.Subscribe(events.FriendshipCreated, events.PhaseImmediate, events.NewTypedHandler(
		"persist-friendship",
		func(ctx context.Context, tx events.Tx, event *events.FriendshipCreatedEvent) error {
			return social.InsertFriendship(ctx, tx, &event.Friendship)
		},
	))

	bus.Subscribe(events.FollowCreated, events.PhaseImmediate, events.NewTypedHandler(
		"persist-follow",
		func(ctx context.Context, tx events.Tx, event *events.FollowCreatedEvent) error {
			return social.InsertFollow(ctx, tx, &event.Follow)
		},
	))

	bus.Subscribe(events.AchievementUnlocked, events.PhaseImmediate, events.NewTypedHandler(
		"persist-unlock",
		func(ctx context.Context, tx events.Tx, event *events.AchievementUnlockedEvent) error {
			return achievements.InsertUnlock(ctx, tx, &event.Unlock)
		},
	))

	logger.Info("Persistence handlers registered")
}
