package sim

import (
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/agentsim/internal/agent"
	"github.com/nidhogg/agentsim/internal/event"
	"go.uber.org/zap"
)

// Message is an inter-agent coordination message. It is delivered at most
// once, into the receiver's short-term memory, during the drain phase of the
// next tick, and is never persisted.
type Message struct {
	ID        string      `json:"id"`
	Sender    string      `json:"sender"`
	Receiver  string      `json:"receiver"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Priority  int         `json:"priority"`
}

// SendMessage appends to the message queue immediately, independent of tick
// timing. Safe to call from outside the tick.
func (s *Scheduler) SendMessage(m *Message) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}

	s.qmu.Lock()
	s.queue = append(s.queue, m)
	s.qmu.Unlock()

	s.bus.Emit(event.Event{
		Type:    event.MessageSent,
		AgentID: m.Sender,
		Data:    map[string]interface{}{"message": m.ID, "receiver": m.Receiver, "type": m.Type},
	})
	s.bus.Flush()
}

// QueueDepth returns the number of undelivered messages.
func (s *Scheduler) QueueDepth() int {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return len(s.queue)
}

// drainMessages empties the queue: each message is written once into its
// receiver's short-term memory; messages to unknown receivers are dropped.
func (s *Scheduler) drainMessages(now time.Time) {
	s.qmu.Lock()
	pending := s.queue
	s.queue = nil
	s.qmu.Unlock()

	for _, m := range pending {
		receiver, ok := s.Agent(m.Receiver)
		if !ok {
			s.logger.Debug("dropping message for unknown receiver",
				zap.String("message", m.ID),
				zap.String("receiver", m.Receiver))
			continue
		}

		key := "msg:" + m.ID
		receiver.Memory.StoreShortTerm(key, &agent.MemoryItem{
			ID:         key,
			Type:       agent.MemoryKnowledge,
			Data:       m.Data,
			Timestamp:  now,
			Importance: m.Priority,
			Strength:   1.0,
		})

		s.bus.Emit(event.Event{
			Type:    event.MessageReceived,
			AgentID: m.Receiver,
			Data:    map[string]interface{}{"message": m.ID, "sender": m.Sender, "type": m.Type},
		})
	}
}
