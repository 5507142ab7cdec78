package services

import (
	"context"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommentService owns the comment write path.
type CommentService struct {
	pipeline *events.Pipeline
	clock    events.Clock
	logger   *zap.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(pipeline *events.Pipeline, clock events.Clock, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		pipeline: pipeline,
		clock:    clock,
		logger:   logger,
	}
}

// AddComment leaves a comment on a trip and refreshes the trip's
// metadata in the same transaction.
func (s *CommentService) AddComment(ctx context.Context, req *AddCommentRequest) (*models.Comment, error) {
	comment := models.Comment{
		ID:        uuid.New(),
		TripID:    req.TripID,
		UserID:    req.UserID,
		Content:   req.Content,
		CreatedAt: s.clock.Now(),
	}

	err := s.pipeline.Execute(ctx, func(ctx context.Context, txn *events.Txn) error {
		bus := s.pipeline.Bus()
		if err := bus.Publish(ctx, txn, events.NewCommentAddedEvent(comment, s.clock)); err != nil {
			return err
		}
		return bus.Publish(ctx, txn, events.NewTripMetadataRefreshedEvent(req.TripID, s.clock))
	})
	if err != nil {
		return nil, mapError("failed to add comment", err)
	}

	return &comment, nil
}
