package presence

import "testing"

func TestTwoDevicesOneOnlineTransition(t *testing.T) {
	tr := NewTracker()

	if !tr.OnConnect("alice") {
		t.Fatal("first connection must report the offline->online transition")
	}
	if tr.OnConnect("alice") {
		t.Fatal("second device must not re-announce online")
	}
	if !tr.IsOnline("alice") {
		t.Fatal("alice should be online with two devices")
	}

	if tr.OnDisconnect("alice") {
		t.Fatal("closing one of two devices must not announce offline")
	}
	if !tr.IsOnline("alice") {
		t.Fatal("alice should stay online on one remaining device")
	}
	if !tr.OnDisconnect("alice") {
		t.Fatal("closing the last device must announce offline")
	}
	if tr.IsOnline("alice") {
		t.Fatal("alice should be offline")
	}
	if tr.LastSeen("alice").IsZero() {
		t.Fatal("last_seen must be stamped on the online->offline transition")
	}
}

func TestDisconnectWithoutConnect(t *testing.T) {
	tr := NewTracker()
	if tr.OnDisconnect("ghost") {
		t.Fatal("disconnect of an untracked user must be a no-op")
	}
}

func TestListOnlineSorted(t *testing.T) {
	tr := NewTracker()
	tr.OnConnect("carol")
	tr.OnConnect("alice")
	tr.OnConnect("bob")
	tr.OnDisconnect("bob")

	got := tr.ListOnline()
	if len(got) != 2 || got[0] != "alice" || got[1] != "carol" {
		t.Fatalf("online = %v, want [alice carol]", got)
	}
}
