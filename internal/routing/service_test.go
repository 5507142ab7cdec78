package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"trailhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTripStore struct {
	trip      *models.Trip
	persisted *string
	failWrite error
}

func (s *fakeTripStore) GetByID(ctx context.Context, tripID uuid.UUID) (*models.Trip, error) {
	if s.trip == nil {
		return nil, errors.New("trip not found")
	}
	return s.trip, nil
}

func (s *fakeTripStore) UpdatePolyline(ctx context.Context, tripID uuid.UUID, encoded string, updatedAt time.Time) error {
	if s.failWrite != nil {
		return s.failWrite
	}
	s.persisted = &encoded
	return nil
}

type fakeUpdateStore struct {
	updates []models.LocationUpdate
}

func (s *fakeUpdateStore) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.LocationUpdate, error) {
	return s.updates, nil
}

type stubProvider struct {
	points []models.Coordinate
	err    error
	calls  int
}

func (p *stubProvider) GetRoutePoints(ctx context.Context, origin, destination models.Coordinate) ([]models.Coordinate, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.points, nil
}

type stubClock struct{ t time.Time }

func (c stubClock) Now() time.Time { return c.t }

func update(tripID uuid.UUID, lat, lng float64, at time.Time) models.LocationUpdate {
	return models.LocationUpdate{ID: uuid.New(), TripID: tripID, Lat: lat, Lng: lng, RecordedAt: at}
}

func newTestService(trips *fakeTripStore, updates *fakeUpdateStore, provider Provider) *Service {
	return NewService(trips, updates, provider, stubClock{t: time.Now()}, zap.NewNop(), nil)
}

func TestAppendSegmentStraightLineFallback(t *testing.T) {
	tripID := uuid.New()
	base := time.Now()
	existing := EncodePolyline([]models.Coordinate{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}})

	trips := &fakeTripStore{trip: &models.Trip{ID: tripID, EncodedPolyline: &existing}}
	updates := &fakeUpdateStore{updates: []models.LocationUpdate{
		update(tripID, 0, 0, base),
		update(tripID, 1, 1, base.Add(time.Hour)),
		update(tripID, 2, 2, base.Add(2*time.Hour)),
	}}

	// No routing provider configured.
	svc := newTestService(trips, updates, nil)
	require.NoError(t, svc.AppendSegment(context.Background(), tripID))

	require.NotNil(t, trips.persisted)
	points, err := DecodePolyline(*trips.persisted)
	require.NoError(t, err)

	// Straight-line segment (1,1)->(2,2) appended with the seam point shared.
	require.Len(t, points, 3)
	assert.InDelta(t, 2.0, points[2].Lat, 1e-5)
	assert.InDelta(t, 2.0, points[2].Lng, 1e-5)
}

func TestAppendSegmentDoesNotDuplicateSeamPoint(t *testing.T) {
	tripID := uuid.New()
	base := time.Now()
	existing := EncodePolyline([]models.Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}})

	trips := &fakeTripStore{trip: &models.Trip{ID: tripID, EncodedPolyline: &existing}}
	updates := &fakeUpdateStore{updates: []models.LocationUpdate{
		update(tripID, 1, 1, base),
		update(tripID, 2, 2, base.Add(time.Hour)),
		update(tripID, 3, 3, base.Add(2*time.Hour)),
	}}
	provider := &stubProvider{points: []models.Coordinate{
		{Lat: 2, Lng: 2}, // seam: last point of the existing polyline
		{Lat: 2.5, Lng: 2.6},
		{Lat: 3, Lng: 3},
	}}

	svc := newTestService(trips, updates, provider)
	require.NoError(t, svc.AppendSegment(context.Background(), tripID))

	require.NotNil(t, trips.persisted)
	points, err := DecodePolyline(*trips.persisted)
	require.NoError(t, err)

	// (existing - 1) + segment length: (2-1) + 3 = 4.
	assert.Len(t, points, 4)
}

func TestAppendSegmentProviderErrorDegradesSilently(t *testing.T) {
	tripID := uuid.New()
	base := time.Now()
	existing := EncodePolyline([]models.Coordinate{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}})

	trips := &fakeTripStore{trip: &models.Trip{ID: tripID, EncodedPolyline: &existing}}
	updates := &fakeUpdateStore{updates: []models.LocationUpdate{
		update(tripID, 0, 0, base),
		update(tripID, 1, 1, base.Add(time.Hour)),
		update(tripID, 2, 2, base.Add(2*time.Hour)),
	}}
	provider := &stubProvider{err: errors.New("routing server unreachable")}

	svc := newTestService(trips, updates, provider)
	require.NoError(t, svc.AppendSegment(context.Background(), tripID))

	require.NotNil(t, trips.persisted)
	points, err := DecodePolyline(*trips.persisted)
	require.NoError(t, err)
	assert.Len(t, points, 3)
}

func TestAppendSegmentWithoutPolylineRecomputes(t *testing.T) {
	tripID := uuid.New()
	base := time.Now()

	trips := &fakeTripStore{trip: &models.Trip{ID: tripID}}
	updates := &fakeUpdateStore{updates: []models.LocationUpdate{
		update(tripID, 0, 0, base),
		update(tripID, 1, 1, base.Add(time.Hour)),
		update(tripID, 2, 2, base.Add(2*time.Hour)),
	}}

	svc := newTestService(trips, updates, nil)
	require.NoError(t, svc.AppendSegment(context.Background(), tripID))

	require.NotNil(t, trips.persisted)
	points, err := DecodePolyline(*trips.persisted)
	require.NoError(t, err)
	assert.Len(t, points, 3)
}

func TestRecomputeWalksAllUpdatesInOrder(t *testing.T) {
	tripID := uuid.New()
	base := time.Now()

	trips := &fakeTripStore{trip: &models.Trip{ID: tripID}}
	updates := &fakeUpdateStore{updates: []models.LocationUpdate{
		update(tripID, 10, 10, base),
		update(tripID, 11, 11, base.Add(time.Hour)),
		update(tripID, 12, 12, base.Add(2*time.Hour)),
		update(tripID, 13, 13, base.Add(3*time.Hour)),
	}}
	provider := &stubProvider{err: errors.New("unavailable")}

	svc := newTestService(trips, updates, provider)
	require.NoError(t, svc.Recompute(context.Background(), tripID))

	// One provider attempt per consecutive pair.
	assert.Equal(t, 3, provider.calls)

	require.NotNil(t, trips.persisted)
	points, err := DecodePolyline(*trips.persisted)
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.InDelta(t, 10.0, points[0].Lat, 1e-5)
	assert.InDelta(t, 13.0, points[3].Lat, 1e-5)
}

func TestRecomputeWithNoUpdatesIsNoop(t *testing.T) {
	tripID := uuid.New()
	trips := &fakeTripStore{trip: &models.Trip{ID: tripID}}
	svc := newTestService(trips, &fakeUpdateStore{}, nil)

	require.NoError(t, svc.Recompute(context.Background(), tripID))
	assert.Nil(t, trips.persisted)
}

func TestAppendSegmentPersistenceFailurePropagates(t *testing.T) {
	tripID := uuid.New()
	base := time.Now()
	existing := EncodePolyline([]models.Coordinate{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}})

	trips := &fakeTripStore{
		trip:      &models.Trip{ID: tripID, EncodedPolyline: &existing},
		failWrite: errors.New("disk full"),
	}
	updates := &fakeUpdateStore{updates: []models.LocationUpdate{
		update(tripID, 0, 0, base),
		update(tripID, 1, 1, base.Add(time.Hour)),
		update(tripID, 2, 2, base.Add(2*time.Hour)),
	}}

	svc := newTestService(trips, updates, nil)
	err := svc.AppendSegment(context.Background(), tripID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist polyline")
}
