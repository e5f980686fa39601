package store

import (
	"errors"
	"testing"
	"time"

	"chatd/pkg/models"
)

func TestNotificationLifecycle(t *testing.T) {
	openTestStore(t)

	if err := SaveNotification(&models.Notification{}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing recipient: expected ErrInvalid, got %v", err)
	}

	first := &models.Notification{Recipient: "bob", Sender: "alice", Type: models.NotifMessage, Message: "hi"}
	if err := SaveNotification(first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := &models.Notification{Recipient: "bob", Sender: "carol", Type: models.NotifMention, Message: "ping"}
	if err := SaveNotification(second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	if err := SaveNotification(&models.Notification{Recipient: "carol", Type: models.NotifSystem, Message: "other user"}); err != nil {
		t.Fatalf("save unrelated: %v", err)
	}

	ns, err := ListNotifications("bob", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ns) != 2 {
		t.Fatalf("expected 2 notifications for bob, got %d", len(ns))
	}
	if ns[0].ID != second.ID {
		t.Fatal("expected newest notification first")
	}

	if err := MarkNotificationRead(first.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := MarkNotificationRead(first.ID); err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
	unread, err := ListNotifications("bob", true)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != second.ID {
		t.Fatalf("unread list wrong: %+v", unread)
	}

	n, err := MarkAllNotificationsRead("bob")
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if n != 1 {
		t.Fatalf("mark all changed %d, want 1", n)
	}
}

func TestPurgeNotificationsKeepsUnread(t *testing.T) {
	openTestStore(t)

	old := time.Now().UTC().Add(-48 * time.Hour).UnixNano()
	readOld := &models.Notification{Recipient: "bob", Type: models.NotifMessage, Message: "old read", CreatedTS: old}
	unreadOld := &models.Notification{Recipient: "bob", Type: models.NotifMessage, Message: "old unread", CreatedTS: old}
	fresh := &models.Notification{Recipient: "bob", Type: models.NotifMessage, Message: "fresh"}
	for _, n := range []*models.Notification{readOld, unreadOld, fresh} {
		if err := SaveNotification(n); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := MarkNotificationRead(readOld.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := MarkNotificationRead(fresh.ID); err != nil {
		t.Fatalf("mark fresh read: %v", err)
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour).UnixNano()
	removed, err := PurgeNotifications(cutoff)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("purged %d, want 1", removed)
	}
	if _, err := GetNotification(readOld.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old read notification should be gone, got %v", err)
	}
	if _, err := GetNotification(unreadOld.ID); err != nil {
		t.Fatalf("old unread notification must survive: %v", err)
	}
	if _, err := GetNotification(fresh.ID); err != nil {
		t.Fatalf("fresh notification must survive: %v", err)
	}
}

func TestPresenceRoundTrip(t *testing.T) {
	openTestStore(t)

	if _, err := GetPresence("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: expected ErrNotFound, got %v", err)
	}
	if err := SetPresence("alice", false, 1234); err != nil {
		t.Fatalf("set presence: %v", err)
	}
	p, err := GetPresence("alice")
	if err != nil {
		t.Fatalf("get presence: %v", err)
	}
	if p.Online || p.LastSeen != 1234 {
		t.Fatalf("presence = %+v, want offline at 1234", p)
	}
}
