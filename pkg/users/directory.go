// Package users is the narrow interface to the account system, which lives
// outside this core. The dispatch engine only ever needs minimal profile
// fields for event payloads.
package users

import (
	"context"
	"sync"
)

// Profile is the minimal projection of a user the core embeds in events.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Picture     string `json:"picture,omitempty"`
}

// Directory resolves a user id to profile fields.
type Directory interface {
	Resolve(ctx context.Context, id string) (Profile, error)
}

// StaticDirectory is an in-memory Directory used in tests and as the
// default when no account service is wired. Unknown ids resolve to a bare
// profile rather than an error; the dispatch path treats profile data as
// decoration, not as authorization.
type StaticDirectory struct {
	mu sync.RWMutex
	m  map[string]Profile
}

// NewStaticDirectory returns an empty static directory.
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{m: make(map[string]Profile)}
}

// Register adds or replaces a profile.
func (d *StaticDirectory) Register(p Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[p.ID] = p
}

// Resolve returns the registered profile, or a bare one for unknown ids.
func (d *StaticDirectory) Resolve(_ context.Context, id string) (Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if p, ok := d.m[id]; ok {
		return p, nil
	}
	return Profile{ID: id, DisplayName: id}, nil
}
