package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) {
	t.Helper()
	dbdir := filepath.Join(t.TempDir(), "db")
	if err := Open(dbdir); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		SetAttachmentProcessor(nil)
		if err := Close(); err != nil {
			t.Fatalf("store.Close: %v", err)
		}
	})
}

func TestReady(t *testing.T) {
	openTestStore(t)
	if !Ready() {
		t.Fatal("expected store to be ready after Open")
	}
}
