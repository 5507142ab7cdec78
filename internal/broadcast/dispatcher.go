package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"trailhub/internal/events"

	"go.uber.org/zap"
)

// Transport pushes a serialized payload to a topic-addressed channel.
// Fire-and-forget: no delivery confirmation is required.
type Transport interface {
	Send(ctx context.Context, topic string, payload []byte) error
}

// Config holds dispatcher configuration.
type Config struct {
	QueueSize   int           `json:"queue_size"`
	SendTimeout time.Duration `json:"send_timeout"`
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() *Config {
	return &Config{
		QueueSize:   1024,
		SendTimeout: 5 * time.Second,
	}
}

// Dispatcher delivers committed broadcast projections to a transport.
// It implements events.Sink: the pipeline enqueues a batch per committed
// transaction, and a single worker drains the queue so same-topic
// delivery order matches commit order. Delivery is at-most-once and
// best-effort: a failed send is logged and dropped.
type Dispatcher struct {
	transport Transport
	logger    *zap.Logger
	config    *Config
	queue     chan []*events.BroadcastPayload
	shutdown  chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
}

// NewDispatcher creates a dispatcher. Call Start before enqueueing.
func NewDispatcher(transport Transport, logger *zap.Logger, config *Config) *Dispatcher {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		transport: transport,
		logger:    logger,
		config:    config,
		queue:     make(chan []*events.BroadcastPayload, config.QueueSize),
		shutdown:  make(chan struct{}),
	}
}

// Start launches the dispatch worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.worker()
	d.logger.Info("Broadcast dispatcher started", zap.Int("queue_size", d.config.QueueSize))
}

// Enqueue implements events.Sink. It never blocks the committing
// request: when the queue is full the batch is dropped and logged.
func (d *Dispatcher) Enqueue(payloads []*events.BroadcastPayload) {
	select {
	case d.queue <- payloads:
	default:
		d.logger.Warn("Broadcast queue full, dropping batch",
			zap.Int("dropped", len(payloads)),
		)
	}
}

// Stop drains nothing and stops the worker; undelivered batches are
// dropped, consistent with at-most-once delivery.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.once.Do(func() { close(d.shutdown) })

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Broadcast dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("Broadcast dispatcher stop timeout")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case batch := <-d.queue:
			for _, payload := range batch {
				d.deliver(payload)
			}
		case <-d.shutdown:
			return
		}
	}
}

func (d *Dispatcher) deliver(payload *events.BroadcastPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("Failed to serialize broadcast payload",
			zap.String("topic", payload.Topic),
			zap.String("event_type", payload.EventType),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
	defer cancel()

	if err := d.transport.Send(ctx, payload.Topic, body); err != nil {
		// No retry, no dead letter: the state change is already durable
		// and subscribers tolerate missed notifications.
		d.logger.Warn("Broadcast delivery failed, dropping event",
			zap.String("topic", payload.Topic),
			zap.String("event_type", payload.EventType),
			zap.String("target_id", payload.TargetID),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("Broadcast delivered",
		zap.String("topic", payload.Topic),
		zap.String("event_type", payload.EventType),
	)
}
