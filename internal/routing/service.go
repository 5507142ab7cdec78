package routing

import (
	"context"
	"fmt"
	"time"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TripStore is the slice of trip persistence the polyline service needs.
type TripStore interface {
	GetByID(ctx context.Context, tripID uuid.UUID) (*models.Trip, error)
	UpdatePolyline(ctx context.Context, tripID uuid.UUID, encoded string, updatedAt time.Time) error
}

// UpdateStore lists a trip's recorded positions in timestamp order.
type UpdateStore interface {
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.LocationUpdate, error)
}

// ServiceConfig holds polyline service configuration.
type ServiceConfig struct {
	ProviderTimeout time.Duration `json:"provider_timeout"`
}

// DefaultServiceConfig returns default service configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{ProviderTimeout: 10 * time.Second}
}

// Service maintains each trip's encoded polyline by appending
// road-snapped segments as updates arrive. It runs after the triggering
// transaction commits and never adds latency to the user-facing write.
//
// Routing provider failure is absorbed: every segment degrades to a
// two-point straight line. Only persistence failures propagate.
type Service struct {
	trips    TripStore
	updates  UpdateStore
	provider Provider
	clock    events.Clock
	logger   *zap.Logger
	config   *ServiceConfig
}

// NewService creates a polyline service. provider may be nil when
// routing is unconfigured.
func NewService(trips TripStore, updates UpdateStore, provider Provider, clock events.Clock, logger *zap.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		trips:    trips,
		updates:  updates,
		provider: provider,
		clock:    clock,
		logger:   logger,
		config:   config,
	}
}

// AppendSegment extends the trip's polyline with the routed path from
// the previous last-known point to the newest update. When the trip has
// no polyline yet it falls back to a full recomputation.
func (s *Service) AppendSegment(ctx context.Context, tripID uuid.UUID) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return fmt.Errorf("load trip: %w", err)
	}

	if trip.EncodedPolyline == nil || *trip.EncodedPolyline == "" {
		return s.Recompute(ctx, tripID)
	}

	updates, err := s.updates.ListByTrip(ctx, tripID)
	if err != nil {
		return fmt.Errorf("load updates: %w", err)
	}
	if len(updates) < 2 {
		// Nothing to append; the existing polyline already covers it.
		return nil
	}

	existing, err := DecodePolyline(*trip.EncodedPolyline)
	if err != nil {
		s.logger.Warn("Stored polyline is corrupt, recomputing",
			zap.String("trip_id", tripID.String()),
			zap.Error(err),
		)
		return s.Recompute(ctx, tripID)
	}

	origin := updates[len(updates)-2].Coordinate()
	destination := updates[len(updates)-1].Coordinate()
	segment := s.segmentPoints(ctx, origin, destination)

	// Skip the segment's first point: it coincides with the polyline's
	// last vertex and must not be duplicated at the seam.
	stitched := append(existing, segment[1:]...)

	if err := s.trips.UpdatePolyline(ctx, tripID, EncodePolyline(stitched), s.clock.Now()); err != nil {
		return fmt.Errorf("persist polyline: %w", err)
	}

	s.logger.Debug("Polyline segment appended",
		zap.String("trip_id", tripID.String()),
		zap.Int("segment_points", len(segment)),
		zap.Int("total_points", len(stitched)),
	)
	return nil
}

// Recompute discards any existing polyline and rebuilds it from all of
// the trip's updates in timestamp order.
func (s *Service) Recompute(ctx context.Context, tripID uuid.UUID) error {
	updates, err := s.updates.ListByTrip(ctx, tripID)
	if err != nil {
		return fmt.Errorf("load updates: %w", err)
	}
	if len(updates) == 0 {
		s.logger.Debug("No updates to build a polyline from",
			zap.String("trip_id", tripID.String()),
		)
		return nil
	}

	points := []models.Coordinate{updates[0].Coordinate()}
	for i := 1; i < len(updates); i++ {
		segment := s.segmentPoints(ctx, updates[i-1].Coordinate(), updates[i].Coordinate())
		points = append(points, segment[1:]...)
	}

	if err := s.trips.UpdatePolyline(ctx, tripID, EncodePolyline(points), s.clock.Now()); err != nil {
		return fmt.Errorf("persist polyline: %w", err)
	}

	s.logger.Info("Polyline recomputed",
		zap.String("trip_id", tripID.String()),
		zap.Int("updates", len(updates)),
		zap.Int("points", len(points)),
	)
	return nil
}

// segmentPoints fetches the routed path for one segment, degrading to a
// two-point straight line when the provider is absent, errors, or times
// out. It always returns at least two points.
func (s *Service) segmentPoints(ctx context.Context, origin, destination models.Coordinate) []models.Coordinate {
	straight := []models.Coordinate{origin, destination}

	if s.provider == nil {
		return straight
	}

	providerCtx, cancel := context.WithTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()

	points, err := s.provider.GetRoutePoints(providerCtx, origin, destination)
	if err != nil {
		s.logger.Warn("Routing provider failed, using straight line",
			zap.Float64("origin_lat", origin.Lat),
			zap.Float64("origin_lng", origin.Lng),
			zap.Error(err),
		)
		return straight
	}
	if len(points) < 2 {
		return straight
	}
	return points
}
