// internal/repositories/snapshot_source.go
package repositories

import (
	"context"
	"fmt"

	"trailhub/internal/achievements"

	"github.com/google/uuid"
)

// snapshotSource assembles the read snapshots the achievement engine
// evaluates. All reads run on the pool, outside the unlock transaction.
type snapshotSource struct {
	trips   TripRepository
	updates UpdateRepository
	social  SocialRepository
}

// NewSnapshotSource creates an achievements.DataSource over the
// repositories.
func NewSnapshotSource(trips TripRepository, updates UpdateRepository, social SocialRepository) achievements.DataSource {
	return &snapshotSource{
		trips:   trips,
		updates: updates,
		social:  social,
	}
}

// TripContext loads the trip and its updates in recording order.
func (s *snapshotSource) TripContext(ctx context.Context, tripID uuid.UUID) (*achievements.TripContext, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}

	updates, err := s.updates.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load updates: %w", err)
	}

	return &achievements.TripContext{Trip: trip, Updates: updates}, nil
}

// UserContext loads the user's social counters.
func (s *snapshotSource) UserContext(ctx context.Context, userID uuid.UUID) (*achievements.UserContext, error) {
	followers, err := s.social.CountFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}

	friends, err := s.social.CountFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count friends: %w", err)
	}

	return &achievements.UserContext{
		UserID:        userID,
		FollowerCount: followers,
		FriendCount:   friends,
	}, nil
}
