package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"chatd/pkg/logger"
	"chatd/pkg/models"
	"chatd/pkg/utils"
)

// Key layout:
//   notif:<id>                        -> Notification JSON
//   unotif:<recipient>:<ts>-<seq>     -> notification id (per-recipient index)

func notifKey(id string) string              { return "notif:" + id }
func userNotifPrefix(recipient string) string { return "unotif:" + recipient + ":" }

// SaveNotification persists a notification record, assigning id and
// timestamp when absent.
func SaveNotification(n *models.Notification) error {
	if n.Recipient == "" {
		return fmt.Errorf("notification needs a recipient: %w", ErrInvalid)
	}
	if n.ID == "" {
		n.ID = utils.GenNotificationID()
	}
	if n.CreatedTS == 0 {
		n.CreatedTS = time.Now().UTC().UnixNano()
	}
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := set(notifKey(n.ID), b); err != nil {
		return err
	}
	if err := set(userNotifPrefix(n.Recipient)+orderedSuffix(n.CreatedTS), []byte(n.ID)); err != nil {
		return err
	}
	notificationsCreated.Inc()
	return nil
}

// GetNotification loads a notification by id.
func GetNotification(id string) (*models.Notification, error) {
	v, err := get(notifKey(id))
	if err != nil {
		return nil, fmt.Errorf("notification %s: %w", id, err)
	}
	var n models.Notification
	if err := json.Unmarshal(v, &n); err != nil {
		return nil, fmt.Errorf("invalid notification record %s: %w", id, err)
	}
	return &n, nil
}

// ListNotifications returns the recipient's notifications, newest first.
// With unreadOnly, read ones are skipped.
func ListNotifications(recipient string, unreadOnly bool) ([]*models.Notification, error) {
	var out []*models.Notification
	err := scan(userNotifPrefix(recipient), func(_ string, val []byte) bool {
		n, gerr := GetNotification(string(val))
		if gerr == nil && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedTS > out[j].CreatedTS })
	return out, nil
}

// MarkNotificationRead marks one notification read. Idempotent.
func MarkNotificationRead(id string) error {
	mu := lockKey(notifKey(id))
	mu.Lock()
	defer mu.Unlock()
	n, err := GetNotification(id)
	if err != nil {
		return err
	}
	if n.Read {
		return nil
	}
	n.Read = true
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return set(notifKey(n.ID), b)
}

// MarkAllNotificationsRead marks every unread notification of the
// recipient read and returns how many changed.
func MarkAllNotificationsRead(recipient string) (int, error) {
	ns, err := ListNotifications(recipient, true)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range ns {
		if err := MarkNotificationRead(n.ID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// PurgeNotifications deletes read notifications created before cutoff (ns)
// and returns how many were removed. Unread notifications are never purged.
func PurgeNotifications(cutoff int64) (int, error) {
	type victim struct{ indexKey, id string }
	var victims []victim
	err := scan("unotif:", func(key string, val []byte) bool {
		n, gerr := GetNotification(string(val))
		if gerr != nil {
			// dangling index entry: remove it
			victims = append(victims, victim{indexKey: key})
			return true
		}
		if n.Read && n.CreatedTS < cutoff {
			victims = append(victims, victim{indexKey: key, id: n.ID})
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, v := range victims {
		if err := del(v.indexKey); err != nil {
			return removed, err
		}
		if v.id != "" {
			if err := del(notifKey(v.id)); err != nil {
				return removed, err
			}
			removed++
		}
	}
	if removed > 0 {
		logger.Info("notifications_purged", "count", removed)
	}
	return removed, nil
}
