package event

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type identifies a simulation event.
type Type string

const (
	AgentCreated    Type = "agent.created"
	AgentRemoved    Type = "agent.removed"
	AgentUpdated    Type = "agent.updated"
	TickCompleted   Type = "tick.completed"
	TreeCreated     Type = "tree.created"
	TreeExecuted    Type = "tree.executed"
	NodeExecuting   Type = "node.executing"
	NodeExecuted    Type = "node.executed"
	ActionError     Type = "action.error"
	MachineCreated  Type = "machine.created"
	MachineUpdated  Type = "machine.updated"
	StateChanged    Type = "state.changed"
	GoalCompleted   Type = "goal.completed"
	GoalFailed      Type = "goal.failed"
	MessageSent     Type = "message.sent"
	MessageReceived Type = "message.received"
)

// Event is a single notification emitted by the engine.
type Event struct {
	Type      Type                   `json:"type"`
	AgentID   string                 `json:"agent_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Observer receives flushed events.
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(e Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Bus collects events into an outbox during a tick and dispatches them to
// observers on Flush. Dispatch happens outside the bus lock and a panicking
// observer never aborts the flush.
type Bus struct {
	observers []Observer
	pending   []Event
	mu        sync.Mutex
	logger    *zap.Logger
}

// NewBus creates an event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers an observer for all future flushes.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Emit appends an event to the pending outbox, stamping the timestamp if unset.
func (b *Bus) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for the next flush.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush delivers all pending events to every observer in emission order.
func (b *Bus) Flush() {
	b.mu.Lock()
	events := b.pending
	b.pending = nil
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.Unlock()

	for _, e := range events {
		for _, o := range observers {
			b.dispatch(o, e)
		}
	}
}

func (b *Bus) dispatch(o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("observer panicked",
				zap.String("event", string(e.Type)),
				zap.Any("panic", r))
		}
	}()
	o.OnEvent(e)
}
