package models

// Presence is the persisted per-user online record. The live state is
// derived from a connection count in pkg/presence, not from this record;
// this exists so last_seen survives restarts.
type Presence struct {
	UserID   string `json:"user_id"`
	Online   bool   `json:"online"`
	LastSeen int64  `json:"last_seen,omitempty"`
}
