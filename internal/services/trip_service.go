package services

import (
	"context"

	"trailhub/internal/events"
	"trailhub/internal/models"
	"trailhub/internal/routing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TripService owns the trip write path. Every mutation is expressed as
// events published inside one pipeline transaction; the persistence
// handlers turn them into rows.
type TripService struct {
	pipeline *events.Pipeline
	routes   *routing.Service
	clock    events.Clock
	logger   *zap.Logger
}

// NewTripService creates a new trip service.
func NewTripService(pipeline *events.Pipeline, routes *routing.Service, clock events.Clock, logger *zap.Logger) *TripService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripService{
		pipeline: pipeline,
		routes:   routes,
		clock:    clock,
		logger:   logger,
	}
}

// CreateTrip starts a new trip with default settings. The trip row, its
// settings row, and the metadata refresh commit atomically.
func (s *TripService) CreateTrip(ctx context.Context, req *CreateTripRequest) (*models.Trip, error) {
	now := s.clock.Now()
	startedAt := now
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	}

	trip := models.Trip{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		StartedAt:   startedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	settings := models.TripSettings{
		TripID:            trip.ID,
		Visibility:        "public",
		CommentsEnabled:   true,
		AutoRouteSnapping: true,
		CreatedAt:         now,
	}

	err := s.pipeline.Execute(ctx, func(ctx context.Context, txn *events.Txn) error {
		bus := s.pipeline.Bus()
		if err := bus.Publish(ctx, txn, events.NewTripCreatedEvent(trip, s.clock)); err != nil {
			return err
		}
		if err := bus.Publish(ctx, txn, events.NewTripSettingsInitializedEvent(settings, s.clock)); err != nil {
			return err
		}
		return bus.Publish(ctx, txn, events.NewTripMetadataRefreshedEvent(trip.ID, s.clock))
	})
	if err != nil {
		return nil, mapError("failed to create trip", err)
	}

	s.logger.Info("Trip created",
		zap.String("trip_id", trip.ID.String()),
		zap.String("user_id", trip.UserID.String()),
	)
	return &trip, nil
}

// AddLocationUpdate records a position on a trip. The update commits
// atomically with the trip's metadata refresh; polyline maintenance and
// achievement evaluation follow after commit.
func (s *TripService) AddLocationUpdate(ctx context.Context, req *AddUpdateRequest) (*models.LocationUpdate, error) {
	recordedAt := s.clock.Now()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	update := models.LocationUpdate{
		ID:         uuid.New(),
		TripID:     req.TripID,
		Lat:        req.Lat,
		Lng:        req.Lng,
		Note:       req.Note,
		RecordedAt: recordedAt,
	}

	err := s.pipeline.Execute(ctx, func(ctx context.Context, txn *events.Txn) error {
		bus := s.pipeline.Bus()
		if err := bus.Publish(ctx, txn, events.NewLocationUpdateRecordedEvent(update, s.clock)); err != nil {
			return err
		}
		return bus.Publish(ctx, txn, events.NewTripMetadataRefreshedEvent(req.TripID, s.clock))
	})
	if err != nil {
		return nil, mapError("failed to record location update", err)
	}

	return &update, nil
}

// RecomputePolyline rebuilds the trip's polyline from scratch. Exposed
// for operators; the normal path appends incrementally after commit.
func (s *TripService) RecomputePolyline(ctx context.Context, tripID uuid.UUID) error {
	if err := s.routes.Recompute(ctx, tripID); err != nil {
		return mapError("failed to recompute polyline", err)
	}
	return nil
}
