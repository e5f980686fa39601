// Package presence derives per-user online state from a connection count.
// A user with two devices stays online when one disconnects; only the
// 0->1 and 1->0 transitions are announced.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var onlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "chatd_presence_online_users",
	Help: "Users currently online (connection count > 0).",
})

// Tracker reference-counts live connections per user.
type Tracker struct {
	mu       sync.Mutex
	counts   map[string]int
	lastSeen map[string]time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		counts:   make(map[string]int),
		lastSeen: make(map[string]time.Time),
	}
}

// OnConnect increments the user's connection count. It reports true when
// the user transitioned offline->online so the caller broadcasts an online
// event exactly once.
func (t *Tracker) OnConnect(user string) (wasOffline bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[user]++
	if t.counts[user] == 1 {
		onlineUsers.Inc()
		return true
	}
	return false
}

// OnDisconnect decrements the count. It reports true when the user
// transitioned to offline, in which case last_seen is stamped.
func (t *Tracker) OnDisconnect(user string) (becameOffline bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.counts[user]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(t.counts, user)
		t.lastSeen[user] = time.Now().UTC()
		onlineUsers.Dec()
		return true
	}
	t.counts[user] = n - 1
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (t *Tracker) IsOnline(user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[user] > 0
}

// LastSeen returns when the user last went offline; zero time if the user
// is online or was never seen.
func (t *Tracker) LastSeen(user string) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts[user] > 0 {
		return time.Time{}
	}
	return t.lastSeen[user]
}

// ListOnline returns the ids of all currently online users, sorted for
// stable output.
func (t *Tracker) ListOnline() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.counts))
	for u := range t.counts {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
