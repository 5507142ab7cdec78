package events

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"trailhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTx records lifecycle calls; queries are never executed.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error   { t.committed = true; return nil }
func (t *fakeTx) Rollback() error { t.rolledBack = true; return nil }

type fakeStarter struct {
	tx *fakeTx
}

func (s *fakeStarter) Begin(ctx context.Context) (Tx, error) { return s.tx, nil }

type fakeSink struct {
	batches [][]*BroadcastPayload
}

func (s *fakeSink) Enqueue(payloads []*BroadcastPayload) {
	s.batches = append(s.batches, payloads)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testClock() Clock {
	return fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func testTrip() models.Trip {
	return models.Trip{ID: uuid.New(), UserID: uuid.New(), Title: "Camino"}
}

func recordingHandler(id string, log *[]string, fail error) Handler {
	return HandlerFunc{
		ID: id,
		Func: func(ctx context.Context, tx Tx, event Event) error {
			*log = append(*log, id)
			return fail
		},
	}
}

func TestPublishRunsImmediateHandlersInRegistrationOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var order []string
	bus.Subscribe(TripCreated, PhaseImmediate, recordingHandler("first", &order, nil))
	bus.Subscribe(TripCreated, PhaseImmediate, recordingHandler("second", &order, nil))

	starter := &fakeStarter{tx: &fakeTx{}}
	pipeline := NewPipeline(starter, bus, nil, zap.NewNop(), nil)

	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		return bus.Publish(ctx, txn, NewTripCreatedEvent(testTrip(), testClock()))
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.True(t, starter.tx.committed)
}

func TestDeferredHandlersRunAfterAllImmediateWork(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var order []string
	bus.Subscribe(TripCreated, PhaseBeforeCommit, recordingHandler("deferred", &order, nil))
	bus.Subscribe(TripCreated, PhaseImmediate, recordingHandler("immediate-a", &order, nil))
	bus.Subscribe(TripSettingsInitialized, PhaseImmediate, recordingHandler("immediate-b", &order, nil))

	starter := &fakeStarter{tx: &fakeTx{}}
	pipeline := NewPipeline(starter, bus, nil, zap.NewNop(), nil)

	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		trip := testTrip()
		if err := bus.Publish(ctx, txn, NewTripCreatedEvent(trip, testClock())); err != nil {
			return err
		}
		return bus.Publish(ctx, txn, NewTripSettingsInitializedEvent(models.TripSettings{TripID: trip.ID}, testClock()))
	})

	require.NoError(t, err)
	// The deferred handler was registered first but still runs last.
	assert.Equal(t, []string{"immediate-a", "immediate-b", "deferred"}, order)
}

func TestHandlerErrorAbortsTransaction(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var order []string
	boom := errors.New("constraint violated")
	bus.Subscribe(TripCreated, PhaseImmediate, recordingHandler("failing", &order, boom))

	starter := &fakeStarter{tx: &fakeTx{}}
	sink := &fakeSink{}
	pipeline := NewPipeline(starter, bus, sink, zap.NewNop(), nil)

	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		return bus.Publish(ctx, txn, NewTripCreatedEvent(testTrip(), testClock()))
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, starter.tx.rolledBack)
	assert.False(t, starter.tx.committed)
	assert.Empty(t, sink.batches)
}

func TestDeferredHandlerErrorRollsBack(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var order []string
	bus.Subscribe(TripCreated, PhaseBeforeCommit, recordingHandler("deferred", &order, errors.New("stale read")))

	starter := &fakeStarter{tx: &fakeTx{}}
	pipeline := NewPipeline(starter, bus, nil, zap.NewNop(), nil)

	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		return bus.Publish(ctx, txn, NewTripCreatedEvent(testTrip(), testClock()))
	})

	require.Error(t, err)
	assert.True(t, starter.tx.rolledBack)
	assert.False(t, starter.tx.committed)
}

func TestBroadcastsReleasedOnlyAfterCommit(t *testing.T) {
	bus := NewBus(zap.NewNop())
	starter := &fakeStarter{tx: &fakeTx{}}
	sink := &fakeSink{}
	pipeline := NewPipeline(starter, bus, sink, zap.NewNop(), nil)

	trip := testTrip()
	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		return bus.Publish(ctx, txn, NewTripCreatedEvent(trip, testClock()))
	})

	require.NoError(t, err)
	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 1)
	assert.Equal(t, TopicTrips, sink.batches[0][0].Topic)
	assert.Equal(t, trip.ID.String(), sink.batches[0][0].TargetID)
}

func TestRolledBackBroadcastNeverReachesSink(t *testing.T) {
	bus := NewBus(zap.NewNop())
	starter := &fakeStarter{tx: &fakeTx{}}
	sink := &fakeSink{}
	pipeline := NewPipeline(starter, bus, sink, zap.NewNop(), nil)

	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		if err := bus.Publish(ctx, txn, NewTripCreatedEvent(testTrip(), testClock())); err != nil {
			return err
		}
		return errors.New("command failed")
	})

	require.Error(t, err)
	assert.True(t, starter.tx.rolledBack)
	assert.Empty(t, sink.batches)
}

func TestPersistenceOnlyEventHasNoBroadcast(t *testing.T) {
	bus := NewBus(zap.NewNop())
	starter := &fakeStarter{tx: &fakeTx{}}
	sink := &fakeSink{}
	pipeline := NewPipeline(starter, bus, sink, zap.NewNop(), nil)

	friendship := models.Friendship{ID: uuid.New(), UserID: uuid.New(), FriendID: uuid.New()}
	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		return bus.Publish(ctx, txn, NewFriendshipCreatedEvent(friendship, testClock()))
	})

	require.NoError(t, err)
	assert.Empty(t, sink.batches)
}

func TestAfterCommitHandlerRunsWithoutTransaction(t *testing.T) {
	bus := NewBus(zap.NewNop())
	done := make(chan Tx, 1)
	bus.Subscribe(LocationUpdateRecorded, PhaseAfterCommit, HandlerFunc{
		ID: "side-effect",
		Func: func(ctx context.Context, tx Tx, event Event) error {
			done <- tx
			return nil
		},
	})

	starter := &fakeStarter{tx: &fakeTx{}}
	pipeline := NewPipeline(starter, bus, nil, zap.NewNop(), nil)

	update := models.LocationUpdate{ID: uuid.New(), TripID: uuid.New(), Lat: 1, Lng: 1}
	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		return bus.Publish(ctx, txn, NewLocationUpdateRecordedEvent(update, testClock()))
	})
	require.NoError(t, err)

	select {
	case tx := <-done:
		assert.Nil(t, tx)
		assert.True(t, starter.tx.committed)
	case <-time.After(2 * time.Second):
		t.Fatal("after-commit handler did not run")
	}
}

func TestAfterCommitHandlerSkippedOnRollback(t *testing.T) {
	bus := NewBus(zap.NewNop())
	ran := make(chan struct{}, 1)
	bus.Subscribe(LocationUpdateRecorded, PhaseAfterCommit, HandlerFunc{
		ID: "side-effect",
		Func: func(ctx context.Context, tx Tx, event Event) error {
			ran <- struct{}{}
			return nil
		},
	})

	starter := &fakeStarter{tx: &fakeTx{}}
	pipeline := NewPipeline(starter, bus, nil, zap.NewNop(), nil)

	update := models.LocationUpdate{ID: uuid.New(), TripID: uuid.New()}
	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		if err := bus.Publish(ctx, txn, NewLocationUpdateRecordedEvent(update, testClock())); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	select {
	case <-ran:
		t.Fatal("side effect ran for a rolled back transaction")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishOutsideTransactionPanics(t *testing.T) {
	bus := NewBus(zap.NewNop())
	assert.Panics(t, func() {
		_ = bus.Publish(context.Background(), nil, NewTripCreatedEvent(testTrip(), testClock()))
	})
}

func TestPublishOnCompletedTransactionPanics(t *testing.T) {
	bus := NewBus(zap.NewNop())
	starter := &fakeStarter{tx: &fakeTx{}}
	pipeline := NewPipeline(starter, bus, nil, zap.NewNop(), nil)

	var leaked *Txn
	err := pipeline.Execute(context.Background(), func(ctx context.Context, txn *Txn) error {
		leaked = txn
		return nil
	})
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = bus.Publish(context.Background(), leaked, NewTripCreatedEvent(testTrip(), testClock()))
	})
}

func TestTypedHandlerRejectsMismatchedEvent(t *testing.T) {
	handler := NewTypedHandler("typed", func(ctx context.Context, tx Tx, event *TripCreatedEvent) error {
		return nil
	})

	err := handler.Handle(context.Background(), nil, NewCommentAddedEvent(models.Comment{}, testClock()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event type mismatch")
}
