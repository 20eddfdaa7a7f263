package room

import (
	"fmt"
	"time"

	"github.com/searchktools/embedhttp/core/sse"
)

// Handler drains one subscriber's mailbox into its own core/sse.Queue,
// bridging the broker's fan-out with the single-connection delivery
// Queue/Base already implement. One Handler runs per connected client.
type Handler struct {
	stream *Stream
}

// NewHandler creates a Handler publishing through stream.
func NewHandler(stream *Stream) *Handler {
	return &Handler{stream: stream}
}

// Serve subscribes clientID to h's stream and forwards every event it
// receives into queue until the client's mailbox is closed or stop is
// closed. A queue that has closed (peer gone) does not end the loop by
// itself; events forwarded to it are dropped. It blocks until one of
// those happens, so callers run it for the lifetime of one connection's
// continuation, closing stop once they've detected the peer is gone so
// this loop — and the subscription it holds — doesn't outlive the
// connection.
func (h *Handler) Serve(clientID string, queue *sse.Queue, stop <-chan struct{}) error {
	client, err := h.stream.Subscribe(clientID)
	if err != nil {
		return err
	}
	defer h.stream.Unsubscribe(client)

	queue.EnqueueEvent(sse.Event{Event: "connected", Data: fmt.Sprintf("client_id:%s", clientID)})

	for {
		select {
		case ev, ok := <-client.Channel:
			if !ok {
				return nil
			}
			queue.EnqueueEvent(ev)
		case <-client.closeCh:
			return nil
		case <-stop:
			return nil
		}
	}
}

// EventBuilder assembles an sse.Event field by field — a convenience for
// call sites that would otherwise build several positional Event
// literals inline.
type EventBuilder struct {
	event sse.Event
}

// NewEventBuilder starts an empty EventBuilder.
func NewEventBuilder() *EventBuilder { return &EventBuilder{} }

func (b *EventBuilder) WithID(id string) *EventBuilder           { b.event.ID = id; return b }
func (b *EventBuilder) WithEvent(eventType string) *EventBuilder { b.event.Event = eventType; return b }
func (b *EventBuilder) WithData(data string) *EventBuilder       { b.event.Data = data; return b }
func (b *EventBuilder) WithRetry(ms int) *EventBuilder           { b.event.Retry = ms; return b }

// Build returns the assembled Event.
func (b *EventBuilder) Build() sse.Event { return b.event }

// NewMessageEvent builds a plain "message" event.
func NewMessageEvent(message string) sse.Event {
	return sse.Event{Event: "message", Data: message}
}

// NewNotificationEvent builds a "notification" event with a small JSON
// payload.
func NewNotificationEvent(title, body string) sse.Event {
	return sse.Event{Event: "notification", Data: fmt.Sprintf(`{"title":"%s","body":"%s"}`, title, body)}
}

// NewHeartbeatEvent builds a "heartbeat" event carrying the current Unix
// timestamp.
func NewHeartbeatEvent() sse.Event {
	return sse.Event{Event: "heartbeat", Data: fmt.Sprintf("timestamp:%d", time.Now().Unix())}
}

// NewErrorEvent builds an "error" event with a small JSON payload.
func NewErrorEvent(code int, message string) sse.Event {
	return sse.Event{Event: "error", Data: fmt.Sprintf(`{"code":%d,"message":"%s"}`, code, message)}
}

// NewProgressEvent builds a "progress" event with a small JSON payload.
func NewProgressEvent(current, total int, message string) sse.Event {
	return sse.Event{Event: "progress", Data: fmt.Sprintf(`{"current":%d,"total":%d,"message":"%s"}`, current, total, message)}
}
