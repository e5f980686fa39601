package store

import (
	"encoding/json"
	"fmt"

	"chatd/pkg/models"
)

func presenceKey(user string) string { return "presence:" + user }

// SetPresence persists the user's presence record so last_seen survives
// restarts. The live online state is owned by pkg/presence; this is the
// durable shadow of it.
func SetPresence(user string, online bool, lastSeen int64) error {
	p := models.Presence{UserID: user, Online: online, LastSeen: lastSeen}
	b, err := json.Marshal(&p)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}
	return set(presenceKey(user), b)
}

// GetPresence loads the persisted presence record for user.
func GetPresence(user string) (*models.Presence, error) {
	v, err := get(presenceKey(user))
	if err != nil {
		return nil, fmt.Errorf("presence %s: %w", user, err)
	}
	var p models.Presence
	if err := json.Unmarshal(v, &p); err != nil {
		return nil, fmt.Errorf("invalid presence record %s: %w", user, err)
	}
	return &p, nil
}
