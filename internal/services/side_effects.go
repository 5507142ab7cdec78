package services

import (
	"context"
	"fmt"

	"trailhub/internal/achievements"
	"trailhub/internal/events"
	"trailhub/internal/routing"

	"go.uber.org/zap"
)

// RegisterSideEffects subscribes the after-commit reactions: polyline
// maintenance and achievement evaluation. They run on background
// goroutines with a nil Tx once the triggering transaction is durable,
// and their failures never reach the command that caused them.
func RegisterSideEffects(
	bus *events.Bus,
	routes *routing.Service,
	engine *achievements.Engine,
	logger *zap.Logger,
) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bus.Subscribe(events.LocationUpdateRecorded, events.PhaseAfterCommit, events.NewTypedHandler(
		"routing-append-segment",
		func(ctx context.Context, _ events.Tx, event *events.LocationUpdateRecordedEvent) error {
			return routes.AppendSegment(ctx, event.Update.TripID)
		},
	))

	bus.Subscribe(events.LocationUpdateRecorded, events.PhaseAfterCommit, events.NewTypedHandler(
		"achievements-evaluate-trip",
		func(ctx context.Context, _ events.Tx, event *events.LocationUpdateRecordedEvent) error {
			return engine.EvaluateTrip(ctx, event.Update.TripID)
		},
	))

	// Both parties gained a friend; evaluate each side.
	bus.Subscribe(events.FriendRequestAccepted, events.PhaseAfterCommit, events.NewTypedHandler(
		"achievements-evaluate-friends",
		func(ctx context.Context, _ events.Tx, event *events.FriendRequestAcceptedEvent) error {
			if err := engine.EvaluateUser(ctx, event.RequesterID); err != nil {
				return fmt.Errorf("requester: %w", err)
			}
			if err := engine.EvaluateUser(ctx, event.AddresseeID); err != nil {
				return fmt.Errorf("addressee: %w", err)
			}
			return nil
		},
	))

	bus.Subscribe(events.FollowCreated, events.PhaseAfterCommit, events.NewTypedHandler(
		"achievements-evaluate-followee",
		func(ctx context.Context, _ events.Tx, event *events.FollowCreatedEvent) error {
			return engine.EvaluateUser(ctx, event.Follow.FolloweeID)
		},
	))

	logger.Info("Side effect handlers registered")
}
