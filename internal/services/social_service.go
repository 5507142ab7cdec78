package services

import (
	"context"

	"trailhub/internal/events"
	"trailhub/internal/models"
	"trailhub/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SocialService owns the social-graph write path: friend request
// acceptance and follows.
type SocialService struct {
	pipeline *events.Pipeline
	social   repositories.SocialRepository
	clock    events.Clock
	logger   *zap.Logger
}

// NewSocialService creates a new social service.
func NewSocialService(pipeline *events.Pipeline, social repositories.SocialRepository, clock events.Clock, logger *zap.Logger) *SocialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialService{
		pipeline: pipeline,
		social:   social,
		clock:    clock,
		logger:   logger,
	}
}

// AcceptFriendRequest accepts a pending request. The status flip and
// both friendship directions commit atomically; a request that is not
// pending is a conflict.
func (s *SocialService) AcceptFriendRequest(ctx context.Context, requestID uuid.UUID) error {
	err := s.pipeline.Execute(ctx, func(ctx context.Context, txn *events.Txn) error {
		req, err := s.social.GetFriendRequest(ctx, txn.Tx(), requestID)
		if err != nil {
			return err
		}
		if req.Status != "pending" {
			return NewConflictError("friend request already responded to", "REQUEST_NOT_PENDING")
		}

		bus := s.pipeline.Bus()
		now := s.clock.Now()

		if err := bus.Publish(ctx, txn, events.NewFriendRequestAcceptedEvent(*req, s.clock)); err != nil {
			return err
		}

		// One row per direction so friend listings stay a single-column
		// lookup.
		forward := models.Friendship{ID: uuid.New(), UserID: req.RequesterID, FriendID: req.AddresseeID, CreatedAt: now}
		reverse := models.Friendship{ID: uuid.New(), UserID: req.AddresseeID, FriendID: req.RequesterID, CreatedAt: now}

		if err := bus.Publish(ctx, txn, events.NewFriendshipCreatedEvent(forward, s.clock)); err != nil {
			return err
		}
		return bus.Publish(ctx, txn, events.NewFriendshipCreatedEvent(reverse, s.clock))
	})
	if err != nil {
		return mapError("failed to accept friend request", err)
	}

	s.logger.Info("Friend request accepted",
		zap.String("request_id", requestID.String()),
	)
	return nil
}

// Follow subscribes one user to another's activity.
func (s *SocialService) Follow(ctx context.Context, req *FollowRequest) error {
	if req.FollowerID == req.FolloweeID {
		return NewValidationError("users cannot follow themselves", nil)
	}

	follow := models.Follow{
		FollowerID: req.FollowerID,
		FolloweeID: req.FolloweeID,
		CreatedAt:  s.clock.Now(),
	}

	err := s.pipeline.Execute(ctx, func(ctx context.Context, txn *events.Txn) error {
		return s.pipeline.Bus().Publish(ctx, txn, events.NewFollowCreatedEvent(follow, s.clock))
	})
	if err != nil {
		return mapError("failed to create follow", err)
	}

	return nil
}
