package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type fakeConn struct {
	id string

	mu       sync.Mutex
	payloads [][]byte
	sendErr  error
	closed   bool
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func TestJoinBroadcastLeave(t *testing.T) {
	h := New()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}

	h.Join("room", a)
	h.Join("room", a) // idempotent
	h.Join("room", b)
	if n := h.Subscribers("room"); n != 2 {
		t.Fatalf("subscribers = %d, want 2", n)
	}

	h.Broadcast("room", map[string]string{"type": "test"})
	if a.received() != 1 || b.received() != 1 {
		t.Fatalf("deliveries a=%d b=%d, want 1 each", a.received(), b.received())
	}
	var got map[string]string
	if err := json.Unmarshal(a.payloads[0], &got); err != nil || got["type"] != "test" {
		t.Fatalf("payload not the marshalled event: %s", a.payloads[0])
	}

	h.Leave("room", a)
	h.Leave("room", a) // safe to repeat
	h.Broadcast("room", map[string]string{"type": "test"})
	if a.received() != 1 {
		t.Fatal("left connection still receiving")
	}
	if b.received() != 2 {
		t.Fatalf("remaining connection got %d, want 2", b.received())
	}
}

func TestBroadcastToEmptyTopic(t *testing.T) {
	h := New()
	// no subscribers: must be a no-op, not a panic
	h.Broadcast("nowhere", map[string]string{"type": "test"})
}

func TestFailedConnDetachedOthersUnaffected(t *testing.T) {
	h := New()
	good := &fakeConn{id: "good"}
	bad := &fakeConn{id: "bad", sendErr: errors.New("queue full")}

	h.Join("room", good)
	h.Join("room", bad)
	h.Join("other", bad)

	h.Broadcast("room", map[string]string{"type": "test"})

	if good.received() != 1 {
		t.Fatalf("healthy connection got %d deliveries, want 1", good.received())
	}
	if !bad.closed {
		t.Fatal("failed connection must be closed")
	}
	if h.Subscribers("room") != 1 || h.Subscribers("other") != 0 {
		t.Fatal("failed connection must be detached from every topic")
	}
}

func TestLeaveAllIsScoped(t *testing.T) {
	h := New()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	h.Join("room", a)
	h.Join("room", b)
	h.Join("presence", a)

	h.LeaveAll(a)

	if h.Subscribers("room") != 1 {
		t.Fatal("other connections must keep their registrations")
	}
	if h.Subscribers("presence") != 0 {
		t.Fatal("LeaveAll must release every topic of the connection")
	}
}

func TestTopicHelpers(t *testing.T) {
	if ChatTopic("c1") != "chat_c1" {
		t.Fatalf("ChatTopic = %s", ChatTopic("c1"))
	}
	if UserTopic("u1") != "user_u1" {
		t.Fatalf("UserTopic = %s", UserTopic("u1"))
	}
}
