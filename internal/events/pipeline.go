package events

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ===============================
// TRANSACTION HANDLE
// ===============================

// Tx is the explicit transaction handle passed to every transactional
// handler. *sql.Tx satisfies it; tests substitute fakes.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	Commit() error
	Rollback() error
}

// Starter opens transactions for the pipeline.
type Starter interface {
	Begin(ctx context.Context) (Tx, error)
}

type sqlStarter struct{ db *sql.DB }

// NewSQLStarter adapts a *sql.DB into a Starter.
func NewSQLStarter(db *sql.DB) Starter { return sqlStarter{db: db} }

func (s sqlStarter) Begin(ctx context.Context) (Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// ===============================
// HANDLERS AND PHASES
// ===============================

// Phase is the point of the transaction lifecycle at which a registered
// handler runs.
type Phase int

const (
	// PhaseImmediate runs synchronously at publish time, inside the
	// publishing transaction.
	PhaseImmediate Phase = iota
	// PhaseBeforeCommit is deferred until all immediate work in the
	// transaction has run, still before commit. Used by handlers that
	// depend on sibling handlers' writes.
	PhaseBeforeCommit
	// PhaseAfterCommit runs on a background goroutine once the
	// transaction is durable. Handlers receive a nil Tx and must open
	// their own transactions if they need one.
	PhaseAfterCommit
)

func (p Phase) String() string {
	switch p {
	case PhaseImmediate:
		return "immediate"
	case PhaseBeforeCommit:
		return "before_commit"
	case PhaseAfterCommit:
		return "after_commit"
	default:
		return "unknown"
	}
}

// Handler applies one event's effect.
type Handler interface {
	Handle(ctx context.Context, tx Tx, event Event) error
	HandlerID() string
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc struct {
	ID   string
	Func func(ctx context.Context, tx Tx, event Event) error
}

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, tx Tx, event Event) error {
	return f.Func(ctx, tx, event)
}

// HandlerID implements Handler.
func (f HandlerFunc) HandlerID() string { return f.ID }

// TypedHandler narrows the event to a concrete type before invoking the
// wrapped function.
type TypedHandler[T Event] struct {
	ID   string
	Func func(ctx context.Context, tx Tx, event T) error
}

// Handle implements Handler.
func (h TypedHandler[T]) Handle(ctx context.Context, tx Tx, event Event) error {
	typed, ok := event.(T)
	if !ok {
		return fmt.Errorf("event type mismatch: expected %T, got %T", *new(T), event)
	}
	return h.Func(ctx, tx, typed)
}

// HandlerID implements Handler.
func (h TypedHandler[T]) HandlerID() string { return h.ID }

// NewTypedHandler creates a typed handler.
func NewTypedHandler[T Event](id string, fn func(ctx context.Context, tx Tx, event T) error) Handler {
	return TypedHandler[T]{ID: id, Func: fn}
}

// ===============================
// BUS
// ===============================

type registration struct {
	phase   Phase
	handler Handler
}

// Bus is the typed in-process registry mapping event type tags to
// handlers. Delivery is synchronous, in registration order, within the
// publishing transaction; it has no persistence of its own.
type Bus struct {
	mu            sync.RWMutex
	registrations map[EventType][]registration
	logger        *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		registrations: make(map[EventType][]registration),
		logger:        logger,
	}
}

// Subscribe registers a handler for one event type at an explicit phase.
func (b *Bus) Subscribe(eventType EventType, phase Phase, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.registrations[eventType] = append(b.registrations[eventType], registration{
		phase:   phase,
		handler: handler,
	})

	b.logger.Info("Handler subscribed",
		zap.String("event_type", string(eventType)),
		zap.String("phase", phase.String()),
		zap.String("handler_id", handler.HandlerID()),
	)
}

// Publish delivers the event to every handler registered for its type.
// Immediate handlers run now on the caller's goroutine; before-commit
// handlers are deferred to the end of the transaction; after-commit
// handlers and the broadcast projection are queued until the
// transaction commits.
//
// Calling Publish without an active transaction is a programming error
// and panics.
func (b *Bus) Publish(ctx context.Context, txn *Txn, event Event) error {
	if txn == nil || txn.tx == nil {
		panic(fmt.Sprintf("events: publish of %q outside of a transaction", event.GetEventType()))
	}
	if txn.closed {
		panic(fmt.Sprintf("events: publish of %q on a completed transaction", event.GetEventType()))
	}

	eventType := event.GetEventType()

	b.mu.RLock()
	regs := make([]registration, len(b.registrations[eventType]))
	copy(regs, b.registrations[eventType])
	b.mu.RUnlock()

	b.logger.Debug("Publishing event",
		zap.String("event_type", string(eventType)),
		zap.String("event_id", event.GetEventID().String()),
		zap.Int("handlers", len(regs)),
	)

	for _, reg := range regs {
		switch reg.phase {
		case PhaseImmediate:
			if err := reg.handler.Handle(ctx, txn.tx, event); err != nil {
				b.logger.Error("Immediate handler failed",
					zap.String("event_type", string(eventType)),
					zap.String("handler_id", reg.handler.HandlerID()),
					zap.Error(err),
				)
				return fmt.Errorf("handler %s: %w", reg.handler.HandlerID(), err)
			}
		case PhaseBeforeCommit:
			txn.deferred = append(txn.deferred, pendingCall{handler: reg.handler, event: event})
		case PhaseAfterCommit:
			txn.after = append(txn.after, pendingCall{handler: reg.handler, event: event})
		}
	}

	if bc := event.GetBroadcast(); bc != nil {
		txn.broadcasts = append(txn.broadcasts, bc)
	}

	return nil
}

// ===============================
// PIPELINE
// ===============================

type pendingCall struct {
	handler Handler
	event   Event
}

// Txn collects the work a transaction has queued: deferred handlers,
// after-commit handlers, and broadcast projections awaiting commit.
type Txn struct {
	tx         Tx
	deferred   []pendingCall
	after      []pendingCall
	broadcasts []*BroadcastPayload
	closed     bool
}

// Tx exposes the underlying transaction handle for command-side reads
// that must see uncommitted writes.
func (t *Txn) Tx() Tx { return t.tx }

// Sink receives committed broadcast projections in commit order.
type Sink interface {
	Enqueue(payloads []*BroadcastPayload)
}

// PipelineConfig holds pipeline tuning knobs.
type PipelineConfig struct {
	SideEffectTimeout time.Duration `json:"side_effect_timeout"`
}

// DefaultPipelineConfig returns default pipeline configuration.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{SideEffectTimeout: 30 * time.Second}
}

// Pipeline owns the transaction lifecycle around the bus: it opens the
// transaction, drains the deferred queue before commit, and releases
// broadcasts and after-commit side effects only once the commit is
// durable. A rolled back transaction releases nothing.
type Pipeline struct {
	starter Starter
	bus     *Bus
	sink    Sink
	logger  *zap.Logger
	config  *PipelineConfig
}

// NewPipeline creates a pipeline. sink may be nil when no broadcast
// transport is configured.
func NewPipeline(starter Starter, bus *Bus, sink Sink, logger *zap.Logger, config *PipelineConfig) *Pipeline {
	if config == nil {
		config = DefaultPipelineConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		starter: starter,
		bus:     bus,
		sink:    sink,
		logger:  logger,
		config:  config,
	}
}

// Bus returns the pipeline's bus for handler registration.
func (p *Pipeline) Bus() *Bus { return p.bus }

// Execute runs fn inside a managed transaction. Any error from fn, a
// deferred handler, or commit rolls everything back; queued broadcasts
// and after-commit side effects are discarded with it.
func (p *Pipeline) Execute(ctx context.Context, fn func(ctx context.Context, txn *Txn) error) error {
	tx, err := p.starter.Begin(ctx)
	if err != nil {
		p.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	txn := &Txn{tx: tx}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic in transaction, rolling back", zap.Any("panic", r))
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, txn); err != nil {
		p.rollback(tx)
		return err
	}

	// Deferred handlers see every immediate write made in this
	// transaction, in the order the events were published.
	for _, call := range txn.deferred {
		if err := call.handler.Handle(ctx, tx, call.event); err != nil {
			p.logger.Error("Deferred handler failed",
				zap.String("event_type", string(call.event.GetEventType())),
				zap.String("handler_id", call.handler.HandlerID()),
				zap.Error(err),
			)
			p.rollback(tx)
			return fmt.Errorf("handler %s: %w", call.handler.HandlerID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		p.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	txn.closed = true

	// Broadcast release is driven by commit completion, so same-topic
	// delivery order matches commit order.
	if p.sink != nil && len(txn.broadcasts) > 0 {
		p.sink.Enqueue(txn.broadcasts)
	}

	for _, call := range txn.after {
		call := call
		go p.runSideEffect(call)
	}

	return nil
}

func (p *Pipeline) rollback(tx Tx) {
	if err := tx.Rollback(); err != nil {
		p.logger.Error("Failed to rollback transaction", zap.Error(err))
	}
}

// runSideEffect runs one after-commit handler. Side effects are
// best-effort: failures are logged and never surfaced to the command
// that triggered them.
func (p *Pipeline) runSideEffect(call pendingCall) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Side effect handler panicked",
				zap.String("event_type", string(call.event.GetEventType())),
				zap.String("handler_id", call.handler.HandlerID()),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.config.SideEffectTimeout)
	defer cancel()

	if err := call.handler.Handle(ctx, nil, call.event); err != nil {
		p.logger.Warn("Side effect handler failed",
			zap.String("event_type", string(call.event.GetEventType())),
			zap.String("handler_id", call.handler.HandlerID()),
			zap.Error(err),
		)
	}
}
