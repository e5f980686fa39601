package retention

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chatd/pkg/config"
	"chatd/pkg/models"
	"chatd/pkg/store"
)

func TestRunOncePurgesOldRead(t *testing.T) {
	if err := store.Open(filepath.Join(t.TempDir(), "db")); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	old := time.Now().UTC().Add(-72 * time.Hour).UnixNano()
	victim := &models.Notification{Recipient: "bob", Type: models.NotifMessage, Message: "old", CreatedTS: old}
	keeper := &models.Notification{Recipient: "bob", Type: models.NotifMessage, Message: "new"}
	if err := store.SaveNotification(victim); err != nil {
		t.Fatalf("save victim: %v", err)
	}
	if err := store.SaveNotification(keeper); err != nil {
		t.Fatalf("save keeper: %v", err)
	}
	if err := store.MarkNotificationRead(victim.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := store.MarkNotificationRead(keeper.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	if err := RunOnce(48 * time.Hour); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if _, err := store.GetNotification(victim.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("victim should be purged, got %v", err)
	}
	if _, err := store.GetNotification(keeper.ID); err != nil {
		t.Fatalf("recent notification must survive: %v", err)
	}
}

func TestStartValidatesCron(t *testing.T) {
	cfg := &config.Config{}
	cfg.Retention.Enabled = true
	cfg.Retention.Cron = "not a cron"
	if _, err := Start(context.Background(), cfg); err == nil {
		t.Fatal("invalid cron expression must be rejected")
	}

	cfg.Retention.Enabled = false
	cancel, err := Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("disabled retention: %v", err)
	}
	cancel()
}
