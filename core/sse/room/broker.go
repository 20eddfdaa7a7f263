// Package room fans one event stream out to many subscribers — the
// chat-room layer that sits one level above core/sse's single-connection
// Base/Queue. Each subscriber still gets its own continuation and its own
// core/sse.Queue; Broker's job is purely to decide who receives what.
package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/searchktools/embedhttp/core/sse"
)

// Client is one subscriber's mailbox: a per-subscriber event channel fed
// by the Broker and drained by whatever goroutine owns that subscriber's
// continuation.
type Client struct {
	ID      string
	Channel chan sse.Event
	closeCh chan struct{}
	once    sync.Once
}

// NewClient creates a Client with the given mailbox capacity (events are
// dropped, never blocked on, once the mailbox is full).
func NewClient(id string, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Client{
		ID:      id,
		Channel: make(chan sse.Event, bufferSize),
		closeCh: make(chan struct{}),
	}
}

// Close closes the client's mailbox. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closeCh)
		close(c.Channel)
	})
}

// IsClosed reports whether Close has been called.
func (c *Client) IsClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// Send delivers ev to the client's mailbox without blocking, reporting
// false if the client is closed or its mailbox is full.
func (c *Client) Send(ev sse.Event) bool {
	if c.IsClosed() {
		return false
	}
	select {
	case c.Channel <- ev:
		return true
	default:
		return false
	}
}

// Broker multiplexes one event stream out to every registered Client. It
// runs its own goroutine draining registration, unregistration, and
// publish requests from buffered channels, so Register/Unregister/Publish
// never block the caller on broker-internal state.
type Broker struct {
	clients     sync.Map
	newClients  chan *Client
	deadClients chan *Client
	messages    chan sse.Event

	totalClients  int64
	messagesCount int64
	droppedCount  int64

	keepaliveInterval time.Duration
	maxClients        int
}

// NewBroker creates a Broker accepting up to maxClients subscribers
// (default 10000) and sending a keepalive event every keepaliveInterval
// (default 30s) to every subscriber.
func NewBroker(maxClients int, keepaliveInterval time.Duration) *Broker {
	if maxClients <= 0 {
		maxClients = 10000
	}
	if keepaliveInterval <= 0 {
		keepaliveInterval = 30 * time.Second
	}

	b := &Broker{
		newClients:        make(chan *Client, 100),
		deadClients:       make(chan *Client, 100),
		messages:          make(chan sse.Event, 1000),
		keepaliveInterval: keepaliveInterval,
		maxClients:        maxClients,
	}

	go b.run()
	go b.keepalive()

	return b
}

func (b *Broker) run() {
	for {
		select {
		case client := <-b.newClients:
			b.clients.Store(client.ID, client)
			b.totalClients++

		case client := <-b.deadClients:
			b.clients.Delete(client.ID)
			client.Close()

		case event := <-b.messages:
			b.messagesCount++
			b.broadcast(event)
		}
	}
}

func (b *Broker) keepalive() {
	ticker := time.NewTicker(b.keepaliveInterval)
	defer ticker.Stop()

	for range ticker.C {
		b.broadcast(sse.Event{Event: "keepalive", Data: fmt.Sprintf("timestamp:%d", time.Now().Unix())})
	}
}

func (b *Broker) broadcast(event sse.Event) {
	b.clients.Range(func(_, value any) bool {
		client := value.(*Client)
		if !client.Send(event) {
			b.droppedCount++
		}
		return true
	})
}

// Register admits client, rejecting it once maxClients subscribers are
// already registered.
func (b *Broker) Register(client *Client) error {
	count := 0
	b.clients.Range(func(_, _ any) bool { count++; return true })
	if count >= b.maxClients {
		return fmt.Errorf("room: max clients reached (%d)", b.maxClients)
	}
	b.newClients <- client
	return nil
}

// Unregister removes client and closes its mailbox.
func (b *Broker) Unregister(client *Client) {
	b.deadClients <- client
}

// Publish broadcasts event to every registered client.
func (b *Broker) Publish(event sse.Event) {
	b.messages <- event
}

// PublishToClient delivers event to exactly one client, reporting false
// if clientID is unknown or that client's mailbox is full.
func (b *Broker) PublishToClient(clientID string, event sse.Event) bool {
	val, ok := b.clients.Load(clientID)
	if !ok {
		return false
	}
	return val.(*Client).Send(event)
}

// ClientCount returns the number of currently registered clients.
func (b *Broker) ClientCount() int {
	count := 0
	b.clients.Range(func(_, _ any) bool { count++; return true })
	return count
}

// Stats reports broker-level counters, handy for a debug/status route.
func (b *Broker) Stats() map[string]any {
	return map[string]any{
		"total_clients":    b.totalClients,
		"current_clients":  b.ClientCount(),
		"messages_sent":    b.messagesCount,
		"messages_dropped": b.droppedCount,
	}
}
