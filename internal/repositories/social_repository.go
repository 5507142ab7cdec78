// internal/repositories/social_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// socialRepository implements SocialRepository.
type socialRepository struct {
	*BaseRepository
}

// NewSocialRepository creates a new instance of SocialRepository.
func NewSocialRepository(db *sql.DB, logger *zap.Logger) SocialRepository {
	return &socialRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// GetFriendRequest loads a friend request with the transaction's view,
// locking the row so concurrent accepts serialize.
func (r *socialRepository) GetFriendRequest(ctx context.Context, tx events.Tx, requestID uuid.UUID) (*models.FriendRequest, error) {
	query := `
		SELECT id, requester_id, addressee_id, status, created_at, responded_at
		FROM friend_requests
		WHERE id = $1
		FOR UPDATE`

	var req models.FriendRequest
	err := tx.QueryRowContext(ctx, query, requestID).Scan(
		&req.ID, &req.RequesterID, &req.AddresseeID,
		&req.Status, &req.CreatedAt, &req.RespondedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("friend request %s: %w", requestID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}

	return &req, nil
}

// MarkRequestAccepted flips a pending request to accepted.
func (r *socialRepository) MarkRequestAccepted(ctx context.Context, tx events.Tx, requestID uuid.UUID, respondedAt time.Time) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE friend_requests SET status = 'accepted', responded_at = $2 WHERE id = $1 AND status = 'pending'`,
		requestID, respondedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to accept friend request: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("friend request %s is not pending: %w", requestID, ErrNotFound)
	}
	return nil
}

// InsertFriendship writes one direction of an accepted friendship.
func (r *socialRepository) InsertFriendship(ctx context.Context, tx events.Tx, friendship *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, user_id, friend_id, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := tx.ExecContext(ctx, query,
		friendship.ID, friendship.UserID, friendship.FriendID, friendship.CreatedAt,
	); err != nil {
		r.GetLogger().Error("Failed to insert friendship",
			zap.Error(err),
			zap.String("user_id", friendship.UserID.String()),
			zap.String("friend_id", friendship.FriendID.String()),
		)
		return fmt.Errorf("failed to insert friendship: %w", err)
	}

	return nil
}

// InsertFollow writes a follow edge.
func (r *socialRepository) InsertFollow(ctx context.Context, tx events.Tx, follow *models.Follow) error {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING`

	if _, err := tx.ExecContext(ctx, query,
		follow.FollowerID, follow.FolloweeID, follow.CreatedAt,
	); err != nil {
		r.GetLogger().Error("Failed to insert follow",
			zap.Error(err),
			zap.String("follower_id", follow.FollowerID.String()),
			zap.String("followee_id", follow.FolloweeID.String()),
		)
		return fmt.Errorf("failed to insert follow: %w", err)
	}

	return nil
}

// CountFriends counts a user's accepted friends from the pool.
func (r *socialRepository) CountFriends(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM friendships WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count friends: %w", err)
	}
	return count, nil
}

// CountFollowers counts a user's followers from the pool.
func (r *socialRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE followee_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return count, nil
}
