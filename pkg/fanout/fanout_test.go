package fanout

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"chatd/pkg/hub"
	"chatd/pkg/models"
	"chatd/pkg/store"
	"chatd/pkg/users"
)

type recordingRouter struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (r *recordingRouter) Join(string, hub.Conn)  {}
func (r *recordingRouter) Leave(string, hub.Conn) {}
func (r *recordingRouter) LeaveAll(hub.Conn)      {}
func (r *recordingRouter) Subscribers(string) int { return 0 }

func (r *recordingRouter) Broadcast(topic string, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
}

func (r *recordingRouter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func startTestFanout(t *testing.T) (*Service, *recordingRouter) {
	t.Helper()
	if err := store.Open(filepath.Join(t.TempDir(), "db")); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	router := &recordingRouter{}
	dir := users.NewStaticDirectory()
	dir.Register(users.Profile{ID: "alice", DisplayName: "Alice"})

	svc := New(router, dir, 2, 64)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc, router
}

func waitFor(t *testing.T, want int, count func() int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for count() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d deliveries, have %d", want, count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFanMessageNotifiesEveryoneButActor(t *testing.T) {
	svc, router := startTestFanout(t)

	conv := &models.Conversation{ID: "c1", Participants: []string{"alice", "bob", "carol"}, IsGroup: true, Name: "room"}
	msg := &models.Message{ID: "m1", Conversation: "c1", Sender: "alice", Content: "hi"}

	svc.FanMessage(context.Background(), msg, conv, "alice")
	waitFor(t, 2, router.count)

	router.mu.Lock()
	defer router.mu.Unlock()
	seen := map[string]bool{}
	for i, topic := range router.topics {
		seen[topic] = true
		ev, ok := router.events[i].(models.NotificationEvent)
		if !ok {
			t.Fatalf("event %d is %T, want NotificationEvent", i, router.events[i])
		}
		if ev.NotificationType != string(models.NotifMessage) {
			t.Fatalf("notification type = %s, want message", ev.NotificationType)
		}
		if ev.FromUser != "alice" {
			t.Fatalf("from_user = %s, want alice", ev.FromUser)
		}
		if ev.Data["conversation_id"] != "c1" || ev.Data["message_id"] != "m1" {
			t.Fatalf("data payload wrong: %v", ev.Data)
		}
	}
	if !seen[hub.UserTopic("bob")] || !seen[hub.UserTopic("carol")] {
		t.Fatalf("topics = %v, want bob and carol personal topics", router.topics)
	}
	if seen[hub.UserTopic("alice")] {
		t.Fatal("actor must not be notified")
	}

	// persisted side
	ns, err := store.ListNotifications("bob", false)
	if err != nil || len(ns) != 1 {
		t.Fatalf("bob notifications = %v, %v", ns, err)
	}
	if ns[0].RelatedMessage != "m1" || ns[0].RelatedConversation != "c1" {
		t.Fatalf("stored lineage wrong: %+v", ns[0])
	}
}

func TestFanMessageTypeFollowsShape(t *testing.T) {
	svc, router := startTestFanout(t)

	conv := &models.Conversation{ID: "c1", Participants: []string{"alice", "bob"}}

	svc.FanMessage(context.Background(), &models.Message{ID: "m1", Sender: "alice", ParentMessage: "m0"}, conv, "alice")
	svc.FanMessage(context.Background(), &models.Message{ID: "m2", Sender: "alice", IsForwarded: true, ForwardedFrom: "m0"}, conv, "alice")
	waitFor(t, 2, router.count)

	router.mu.Lock()
	defer router.mu.Unlock()
	types := map[string]bool{}
	for _, e := range router.events {
		types[e.(models.NotificationEvent).NotificationType] = true
	}
	if !types[string(models.NotifThreadReply)] || !types[string(models.NotifForward)] {
		t.Fatalf("types = %v, want thread_reply and forwarded_message", types)
	}
}

func TestNotifyUser(t *testing.T) {
	svc, router := startTestFanout(t)

	svc.NotifyUser("bob", "alice", models.NotifFriendRequest, "Alice sent you a friend request", nil)
	waitFor(t, 1, router.count)

	ns, err := store.ListNotifications("bob", true)
	if err != nil || len(ns) != 1 {
		t.Fatalf("notifications = %v, %v", ns, err)
	}
	if ns[0].Type != models.NotifFriendRequest || ns[0].Sender != "alice" {
		t.Fatalf("stored notification wrong: %+v", ns[0])
	}
}
