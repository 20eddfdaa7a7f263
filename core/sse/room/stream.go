package room

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/searchktools/embedhttp/core/sse"
)

// Stream is a named event source backed by a Broker, handing out
// monotonically increasing event IDs scoped to its namespace.
type Stream struct {
	broker    *Broker
	eventID   atomic.Uint64
	namespace string
}

// NewStream creates a Stream with its own Broker under namespace.
func NewStream(namespace string) *Stream {
	return &Stream{
		broker:    NewBroker(10000, 30*time.Second),
		namespace: namespace,
	}
}

// WithBroker replaces the Stream's broker, letting multiple Streams share
// one Broker's subscriber set.
func (s *Stream) WithBroker(broker *Broker) *Stream {
	s.broker = broker
	return s
}

// Subscribe registers a new Client under clientID.
func (s *Stream) Subscribe(clientID string) (*Client, error) {
	client := NewClient(clientID, 100)
	if err := s.broker.Register(client); err != nil {
		return nil, err
	}
	return client, nil
}

// Unsubscribe removes client from the stream.
func (s *Stream) Unsubscribe(client *Client) {
	s.broker.Unregister(client)
}

// Send broadcasts an event of the given type and data to every subscriber.
func (s *Stream) Send(eventType, data string) error {
	id := s.eventID.Add(1)
	s.broker.Publish(sse.Event{ID: fmt.Sprintf("%s-%d", s.namespace, id), Event: eventType, Data: data})
	return nil
}

// SendTo delivers an event to exactly one subscriber.
func (s *Stream) SendTo(clientID, eventType, data string) error {
	id := s.eventID.Add(1)
	ev := sse.Event{ID: fmt.Sprintf("%s-%d", s.namespace, id), Event: eventType, Data: data}
	if !s.broker.PublishToClient(clientID, ev) {
		return fmt.Errorf("room: client not found or mailbox full")
	}
	return nil
}

// Broadcast sends a plain "message" event to every subscriber.
func (s *Stream) Broadcast(message string) error {
	return s.Send("message", message)
}

// ClientCount returns the number of currently subscribed clients.
func (s *Stream) ClientCount() int {
	return s.broker.ClientCount()
}

// Stats reports stream- and broker-level counters.
func (s *Stream) Stats() map[string]any {
	stats := s.broker.Stats()
	stats["namespace"] = s.namespace
	stats["event_id"] = s.eventID.Load()
	return stats
}

// Room is a named subset of a Stream's subscribers — e.g. one chat
// channel among several sharing the same underlying Stream/Broker.
type Room struct {
	name    string
	clients sync.Map
	stream  *Stream
}

// NewRoom creates an empty Room named name, broadcasting through stream.
func NewRoom(name string, stream *Stream) *Room {
	return &Room{name: name, stream: stream}
}

// Join adds client to the room's membership (membership is local to the
// Room; it does not by itself subscribe the client to the Stream).
func (r *Room) Join(client *Client) {
	r.clients.Store(client.ID, client)
}

// Leave removes clientID from the room's membership.
func (r *Room) Leave(clientID string) {
	r.clients.Delete(clientID)
}

// Broadcast delivers an event directly to every member of this room,
// bypassing the underlying Stream's broker so non-members never see it.
func (r *Room) Broadcast(eventType, data string) {
	ev := sse.Event{Event: eventType, Data: data}
	r.clients.Range(func(_, value any) bool {
		value.(*Client).Send(ev)
		return true
	})
}

// ClientCount returns the number of members currently in the room.
func (r *Room) ClientCount() int {
	count := 0
	r.clients.Range(func(_, _ any) bool { count++; return true })
	return count
}
