package achievements

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"trailhub/internal/events"
	"trailhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTx struct{}

func (fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}
func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeStarter struct{}

func (fakeStarter) Begin(ctx context.Context) (events.Tx, error) { return fakeTx{}, nil }

type fakeData struct {
	trip *TripContext
	user *UserContext
}

func (d *fakeData) TripContext(ctx context.Context, tripID uuid.UUID) (*TripContext, error) {
	return d.trip, nil
}

func (d *fakeData) UserContext(ctx context.Context, userID uuid.UUID) (*UserContext, error) {
	return d.user, nil
}

type fakeCatalog struct {
	rows     map[models.AchievementType]*models.Achievement
	unlocks  map[string]bool
	disabled map[models.AchievementType]bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		rows:     make(map[models.AchievementType]*models.Achievement),
		unlocks:  make(map[string]bool),
		disabled: make(map[models.AchievementType]bool),
	}
}

func unlockKey(userID uuid.UUID, achType models.AchievementType, tripID *uuid.UUID) string {
	scope := "user"
	if tripID != nil {
		scope = tripID.String()
	}
	return fmt.Sprintf("%s|%s|%s", userID, achType, scope)
}

func (c *fakeCatalog) UnlockExists(ctx context.Context, tx events.Tx, userID uuid.UUID, achType models.AchievementType, tripID *uuid.UUID) (bool, error) {
	return c.unlocks[unlockKey(userID, achType, tripID)], nil
}

func (c *fakeCatalog) ResolveOrCreate(ctx context.Context, tx events.Tx, spec models.AchievementSpec) (*models.Achievement, error) {
	if row, ok := c.rows[spec.Type]; ok {
		return row, nil
	}
	row := &models.Achievement{
		ID:             uuid.New(),
		Type:           spec.Type,
		Name:           spec.Name,
		Description:    spec.Description,
		ThresholdValue: spec.Threshold,
		Category:       spec.Category,
		Enabled:        !c.disabled[spec.Type],
		CreatedAt:      time.Now(),
	}
	c.rows[spec.Type] = row
	return row, nil
}

type engineHarness struct {
	engine   *Engine
	catalog  *fakeCatalog
	unlocked []*events.AchievementUnlockedEvent
}

// newEngineHarness wires an engine over a bus whose unlock handler
// records the event and marks the row written, the way the persistence
// layer would inside the same transaction.
func newEngineHarness(t *testing.T, data *fakeData) *engineHarness {
	t.Helper()

	h := &engineHarness{catalog: newFakeCatalog()}

	bus := events.NewBus(zap.NewNop())
	bus.Subscribe(events.AchievementUnlocked, events.PhaseImmediate, events.NewTypedHandler(
		"test-unlock-recorder",
		func(ctx context.Context, tx events.Tx, event *events.AchievementUnlockedEvent) error {
			h.unlocked = append(h.unlocked, event)
			h.catalog.unlocks[unlockKey(event.Unlock.UserID, event.Type, event.Unlock.TripID)] = true
			return nil
		},
	))

	pipeline := events.NewPipeline(fakeStarter{}, bus, nil, zap.NewNop(), nil)
	clock := events.SystemClock{}
	h.engine = NewEngine(data, h.catalog, pipeline, clock, zap.NewNop(), DefaultTripCheckers(), DefaultUserCheckers())
	return h
}

func tripSnapshot(userID uuid.UUID, updates []models.LocationUpdate) *fakeData {
	tripID := uuid.New()
	for i := range updates {
		updates[i].TripID = tripID
	}
	return &fakeData{trip: &TripContext{
		Trip:    &models.Trip{ID: tripID, UserID: userID},
		Updates: updates,
	}}
}

func updateAt(lat, lng float64, at time.Time) models.LocationUpdate {
	return models.LocationUpdate{ID: uuid.New(), Lat: lat, Lng: lng, RecordedAt: at}
}

func TestEvaluateTripBelowEveryThresholdUnlocksNothing(t *testing.T) {
	base := time.Now()
	// Santiago de Compostela to Fisterra: roughly 58 km, two updates,
	// a few hours apart. Nothing crosses.
	data := tripSnapshot(uuid.New(), []models.LocationUpdate{
		updateAt(42.8805, -8.5457, base),
		updateAt(42.9000, -9.2615, base.Add(3*time.Hour)),
	})

	h := newEngineHarness(t, data)
	require.NoError(t, h.engine.EvaluateTrip(context.Background(), data.trip.Trip.ID))

	assert.Empty(t, h.unlocked)
}

func TestEvaluateTripUnlocksUpdateCountThreshold(t *testing.T) {
	base := time.Now()
	updates := make([]models.LocationUpdate, 0, 10)
	for i := 0; i < 10; i++ {
		updates = append(updates, updateAt(40.0, -3.7, base.Add(time.Duration(i)*time.Minute)))
	}
	data := tripSnapshot(uuid.New(), updates)

	h := newEngineHarness(t, data)
	require.NoError(t, h.engine.EvaluateTrip(context.Background(), data.trip.Trip.ID))

	require.Len(t, h.unlocked, 1)
	assert.Equal(t, models.TypeUpdates10, h.unlocked[0].Type)
	assert.Equal(t, 10.0, h.unlocked[0].Unlock.ValueAchieved)
	require.NotNil(t, h.unlocked[0].Unlock.TripID)
	assert.Equal(t, data.trip.Trip.ID, *h.unlocked[0].Unlock.TripID)
}

func TestEvaluateTripCrossingTwoCountThresholds(t *testing.T) {
	base := time.Now()
	updates := make([]models.LocationUpdate, 0, 50)
	for i := 0; i < 50; i++ {
		updates = append(updates, updateAt(40.0, -3.7, base.Add(time.Duration(i)*time.Minute)))
	}
	data := tripSnapshot(uuid.New(), updates)

	h := newEngineHarness(t, data)
	require.NoError(t, h.engine.EvaluateTrip(context.Background(), data.trip.Trip.ID))

	types := make([]models.AchievementType, 0, len(h.unlocked))
	for _, ev := range h.unlocked {
		types = append(types, ev.Type)
	}
	assert.ElementsMatch(t, []models.AchievementType{
		models.TypeUpdates10,
		models.TypeUpdates50,
	}, types)
}

func TestEvaluateTripIsIdempotent(t *testing.T) {
	base := time.Now()
	updates := make([]models.LocationUpdate, 0, 12)
	for i := 0; i < 12; i++ {
		updates = append(updates, updateAt(40.0, -3.7, base.Add(time.Duration(i)*time.Minute)))
	}
	data := tripSnapshot(uuid.New(), updates)

	h := newEngineHarness(t, data)
	require.NoError(t, h.engine.EvaluateTrip(context.Background(), data.trip.Trip.ID))
	require.NoError(t, h.engine.EvaluateTrip(context.Background(), data.trip.Trip.ID))
	require.NoError(t, h.engine.EvaluateTrip(context.Background(), data.trip.Trip.ID))

	assert.Len(t, h.unlocked, 1)
}

func TestEvaluateTripDurationCarriesActualValue(t *testing.T) {
	base := time.Now()
	// Seven sparse updates spread over eight full days.
	updates := []models.LocationUpdate{
		updateAt(40.00, -3.70, base),
		updateAt(40.01, -3.70, base.Add(1*24*time.Hour)),
		updateAt(40.02, -3.70, base.Add(2*24*time.Hour)),
		updateAt(40.03, -3.70, base.Add(4*24*time.Hour)),
		updateAt(40.04, -3.70, base.Add(6*24*time.Hour)),
		updateAt(40.05, -3.70, base.Add(7*24*time.Hour)),
		updateAt(40.06, -3.70, base.Add(8*24*time.Hour)),
	}
	data := tripSnapshot(uuid.New(), updates)

	h := newEngineHarness(t, data)
	require.NoError(t, h.engine.EvaluateTrip(context.Background(), data.trip.Trip.ID))

	require.Len(t, h.unlocked, 1)
	assert.Equal(t, models.TypeDuration7D, h.unlocked[0].Type)
	assert.Equal(t, 8.0, h.unlocked[0].Unlock.ValueAchieved)
}

func TestEvaluateUserUnlockHasNoTripReference(t *testing.T) {
	userID := uuid.New()
	data := &fakeData{user: &UserContext{UserID: userID, FollowerCount: 12, FriendCount: 2}}

	h := newEngineHarness(t, data)
	require.NoError(t, h.engine.EvaluateUser(context.Background(), userID))

	require.Len(t, h.unlocked, 1)
	assert.Equal(t, models.TypeFollowers10, h.unlocked[0].Type)
	assert.Equal(t, userID, h.unlocked[0].Unlock.UserID)
	assert.Nil(t, h.unlocked[0].Unlock.TripID)
}

func TestEvaluateUserCrossingSeveralThresholdsUnlocksEach(t *testing.T) {
	userID := uuid.New()
	data := &fakeData{user: &UserContext{UserID: userID, FollowerCount: 55, FriendCount: 6}}

	h := newEngineHarness(t, data)
	require.NoError(t, h.engine.EvaluateUser(context.Background(), userID))

	types := make([]models.AchievementType, 0, len(h.unlocked))
	for _, ev := range h.unlocked {
		types = append(types, ev.Type)
	}
	assert.ElementsMatch(t, []models.AchievementType{
		models.TypeFollowers10,
		models.TypeFollowers50,
		models.TypeFriends5,
	}, types)
}

func TestDisabledAchievementIsNeverUnlocked(t *testing.T) {
	userID := uuid.New()
	data := &fakeData{user: &UserContext{UserID: userID, FollowerCount: 12}}

	h := newEngineHarness(t, data)
	h.catalog.disabled[models.TypeFollowers10] = true

	require.NoError(t, h.engine.EvaluateUser(context.Background(), userID))
	assert.Empty(t, h.unlocked)
}
