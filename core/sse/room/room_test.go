package room

import (
	"testing"
	"time"

	"github.com/searchktools/embedhttp/core/sse"
)

func TestBrokerStartsEmpty(t *testing.T) {
	b := NewBroker(100, 30*time.Second)
	if b.ClientCount() != 0 {
		t.Fatalf("ClientCount = %d, want 0", b.ClientCount())
	}
}

func TestClientSendAndClose(t *testing.T) {
	c := NewClient("test-client", 10)
	if c.ID != "test-client" {
		t.Fatalf("ID = %q, want test-client", c.ID)
	}
	if !c.Send(sse.Event{Event: "x"}) {
		t.Fatal("Send on open client should succeed")
	}
	c.Close()
	if !c.IsClosed() {
		t.Fatal("expected client to report closed")
	}
	if c.Send(sse.Event{Event: "x"}) {
		t.Fatal("Send on closed client should fail")
	}
}

func TestBrokerRegisterRejectsOverCapacity(t *testing.T) {
	b := NewBroker(1, 30*time.Second)
	if err := b.Register(NewClient("a", 1)); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	// Give the broker goroutine a chance to apply the registration before
	// the capacity check below runs.
	time.Sleep(10 * time.Millisecond)
	if err := b.Register(NewClient("b", 1)); err == nil {
		t.Fatal("expected Register to reject a client past capacity")
	}
}

func TestStreamSendReachesSubscriber(t *testing.T) {
	stream := NewStream("room1")
	client, err := stream.Subscribe("alice")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stream.Unsubscribe(client)

	if err := stream.Broadcast("hello"); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	select {
	case ev := <-client.Channel:
		if ev.Data != "hello" {
			t.Fatalf("Data = %q, want hello", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
	}
}

func TestRoomBroadcastOnlyReachesMembers(t *testing.T) {
	stream := NewStream("lobby")
	r := NewRoom("lobby", stream)

	member := NewClient("member", 4)
	nonMember := NewClient("outsider", 4)
	r.Join(member)

	r.Broadcast("message", "hi")

	select {
	case ev := <-member.Channel:
		if ev.Data != "hi" {
			t.Fatalf("Data = %q, want hi", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("member never received room broadcast")
	}

	select {
	case <-nonMember.Channel:
		t.Fatal("non-member should not have received the room broadcast")
	default:
	}
}

// discardStream satisfies continuation.Stream without a real connection,
// letting Handler.Serve be exercised against a genuine *sse.Queue.
type discardStream struct{}

func (discardStream) WriteHeader(string) error { return nil }
func (discardStream) WriteChunk([]byte) error  { return nil }
func (discardStream) SetTimeout(time.Duration) {}
func (discardStream) DisableTimeout()          {}
func (discardStream) ProbeConnectionOK() bool  { return true }

func TestHandlerServeStopsOnStopChannel(t *testing.T) {
	stream := NewStream("handler-room")
	h := NewHandler(stream)

	queue := sse.NewQueue(sse.NewBase(discardStream{}))
	go queue.Run()
	defer queue.Close()

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- h.Serve("client-1", queue, stop)
	}()

	close(stop)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after stop was closed")
	}
}

func TestEventBuilderRoundTrip(t *testing.T) {
	ev := NewEventBuilder().WithID("1").WithEvent("update").WithData("payload").WithRetry(2000).Build()
	if ev.ID != "1" || ev.Event != "update" || ev.Data != "payload" || ev.Retry != 2000 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
