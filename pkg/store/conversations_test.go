package store

import (
	"errors"
	"testing"
)

func TestCreateConversationValidation(t *testing.T) {
	openTestStore(t)

	if _, err := CreateConversation([]string{"alice"}, false, ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("single participant: expected ErrInvalid, got %v", err)
	}
	if _, err := CreateConversation([]string{"a", "b", "c"}, false, ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("direct with three: expected ErrInvalid, got %v", err)
	}
	if _, err := CreateConversation([]string{"a", "b", "c"}, true, "room"); err != nil {
		t.Fatalf("group with three: %v", err)
	}
}

func TestDirectConversationDedupe(t *testing.T) {
	openTestStore(t)

	c1, err := GetOrCreateDirectConversation("alice", "bob")
	if err != nil {
		t.Fatalf("first get-or-create: %v", err)
	}
	c2, err := GetOrCreateDirectConversation("bob", "alice")
	if err != nil {
		t.Fatalf("reversed get-or-create: %v", err)
	}
	if c1.ID != c2.ID {
		t.Fatalf("expected same conversation for both orders, got %s and %s", c1.ID, c2.ID)
	}
	if c1.IsGroup {
		t.Fatal("direct conversation must not be a group")
	}

	if _, err := GetOrCreateDirectConversation("alice", "alice"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("self pair: expected ErrInvalid, got %v", err)
	}
}

func TestListConversationsFiltersAndOrders(t *testing.T) {
	openTestStore(t)

	c1, err := CreateConversation([]string{"alice", "bob"}, false, "")
	if err != nil {
		t.Fatalf("create c1: %v", err)
	}
	c2, err := CreateConversation([]string{"alice", "bob", "carol"}, true, "room")
	if err != nil {
		t.Fatalf("create c2: %v", err)
	}
	if _, err := CreateConversation([]string{"dave", "erin"}, false, ""); err != nil {
		t.Fatalf("create unrelated: %v", err)
	}

	// activity in c1 moves it ahead of c2
	if _, err := CreateMessage(c1.ID, "alice", "hi", "", "", nil); err != nil {
		t.Fatalf("create message: %v", err)
	}

	convs, err := ListConversations("alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations for alice, got %d", len(convs))
	}
	if convs[0].ID != c1.ID || convs[1].ID != c2.ID {
		t.Fatalf("expected most recently active first, got %s then %s", convs[0].ID, convs[1].ID)
	}
}
