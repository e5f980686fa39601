package hub

import (
	"encoding/json"
	"sync"

	"chatd/pkg/logger"
)

// Topic names. A topic is a named broadcast group: one per conversation,
// one per user (personal channel), and one global presence channel.
const PresenceTopic = "presence"

// ChatTopic returns the broadcast topic for a conversation room.
func ChatTopic(conversationID string) string { return "chat_" + conversationID }

// UserTopic returns the personal channel topic for direct notifications.
func UserTopic(userID string) string { return "user_" + userID }

// Conn is the handle a live connection registers under topics. Send must
// not block: implementations enqueue into a bounded buffer and return an
// error when the connection is too far behind or already closed.
type Conn interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

// Router is the broadcast-group contract. The in-process Hub is the
// default backing; Backbone wraps it for multi-process deployments.
// Ordering holds per topic per dispatch point; nothing is guaranteed
// across topics or across processes.
type Router interface {
	Join(topic string, c Conn)
	Leave(topic string, c Conn)
	LeaveAll(c Conn)
	Broadcast(topic string, event any)
	Subscribers(topic string) int
}

// Hub maps topics to the set of currently attached connections.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]Conn
	// joined tracks topic membership per connection for scoped release on
	// disconnect.
	joined map[string]map[string]struct{}
}

// New returns an empty in-process hub.
func New() *Hub {
	return &Hub{
		topics: make(map[string]map[string]Conn),
		joined: make(map[string]map[string]struct{}),
	}
}

// Join registers c under topic. Idempotent per (topic, connection).
func (h *Hub) Join(topic string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.topics[topic]
	if !ok {
		m = make(map[string]Conn)
		h.topics[topic] = m
	}
	if _, ok := m[c.ID()]; ok {
		return
	}
	m[c.ID()] = c
	j, ok := h.joined[c.ID()]
	if !ok {
		j = make(map[string]struct{})
		h.joined[c.ID()] = j
	}
	j[topic] = struct{}{}
	topicRegistrations.Inc()
}

// Leave removes the registration. Safe to call for a topic the connection
// never joined.
func (h *Hub) Leave(topic string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(topic, c.ID())
}

// LeaveAll removes c from every topic it joined. Called on disconnect,
// including abnormal termination paths.
func (h *Hub) LeaveAll(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range h.joined[c.ID()] {
		h.leaveLocked(topic, c.ID())
	}
	delete(h.joined, c.ID())
}

func (h *Hub) leaveLocked(topic, connID string) {
	m, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := m[connID]; !ok {
		return
	}
	delete(m, connID)
	if len(m) == 0 {
		delete(h.topics, topic)
	}
	if j, ok := h.joined[connID]; ok {
		delete(j, topic)
		if len(j) == 0 {
			delete(h.joined, connID)
		}
	}
	topicRegistrations.Dec()
}

// Broadcast delivers event to every connection joined to topic at
// invocation time. Delivery is attempted per connection; one failed
// connection never blocks the others. Connections whose send buffer is
// full are detached and closed as unrecoverably behind.
func (h *Hub) Broadcast(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("broadcast_marshal_failed", "topic", topic, "error", err)
		return
	}
	h.Deliver(topic, payload)
}

// Deliver pushes a pre-encoded payload to the topic's local subscribers.
// Used by Broadcast and by the backbone for events from peer processes.
func (h *Hub) Deliver(topic string, payload []byte) {
	h.mu.RLock()
	var failed []Conn
	for _, c := range h.topics[topic] {
		if err := c.Send(payload); err != nil {
			droppedSends.Inc()
			logger.Warn("broadcast_send_failed", "topic", topic, "conn", c.ID(), "error", err)
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()
	broadcasts.Inc()

	for _, c := range failed {
		h.LeaveAll(c)
		_ = c.Close()
	}
}

// Subscribers returns the number of connections currently joined to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
