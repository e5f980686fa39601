package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chatd/pkg/hub"
	"chatd/pkg/logger"
	"chatd/pkg/models"
	"chatd/pkg/store"
)

// HandlePresence serves /ws/presence/{userID}. The connection joins the
// user's personal topic for notification pushes and the global presence
// topic. Online state is reference counted: only the first connection of
// a user announces online, only the last announces offline.
func (h *Handlers) HandlePresence(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws_upgrade_failed", "path", r.URL.Path, "error", err)
		return
	}

	sess := newSession(conn, userID, h.sendQueue)
	sess.reqCtx = r.Context()
	h.Router.Join(hub.UserTopic(userID), sess)
	h.Router.Join(hub.PresenceTopic, sess)
	presenceConnections.Inc()

	if h.Tracker.OnConnect(userID) {
		logger.Info("user_online", "user", userID)
		h.Router.Broadcast(hub.PresenceTopic, models.PresenceEvent{
			Type:   "presence",
			UserID: userID,
			Online: true,
		})
		if err := store.SetPresence(userID, true, 0); err != nil {
			logger.Warn("presence_persist_failed", "user", userID, "error", err)
		}
	}

	defer func() {
		h.Router.LeaveAll(sess)
		_ = sess.Close()
		presenceConnections.Dec()
		if h.Tracker.OnDisconnect(userID) {
			lastSeen := h.Tracker.LastSeen(userID).Unix()
			logger.Info("user_offline", "user", userID, "last_seen", lastSeen)
			h.Router.Broadcast(hub.PresenceTopic, models.PresenceEvent{
				Type:     "presence",
				UserID:   userID,
				Online:   false,
				LastSeen: lastSeen,
			})
			if err := store.SetPresence(userID, false, lastSeen); err != nil {
				logger.Warn("presence_persist_failed", "user", userID, "error", err)
			}
		}
	}()

	go sess.writePump()
	h.readPresence(sess)
}

// readPresence handles the small inbound vocabulary of the presence
// socket. Everything else it receives is answered with an error event.
func (h *Handlers) readPresence(sess *session) {
	limiter := h.newLimiter()
	sess.ws.SetReadLimit(maxFrameBytes)
	_ = sess.ws.SetReadDeadline(time.Now().Add(pongWait))
	sess.ws.SetPongHandler(func(string) error {
		return sess.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := sess.ws.ReadMessage()
		if err != nil {
			return
		}
		if !limiter.Allow() {
			eventsThrottled.Inc()
			sess.sendEvent(models.ErrorEvent{Type: "error", Error: "rate limit exceeded"})
			continue
		}

		var in models.Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			sess.sendEvent(models.ErrorEvent{Type: "error", Error: "malformed event"})
			continue
		}

		switch in.Type {
		case "get_online_users":
			sess.sendEvent(models.OnlineUsersEvent{
				Type:  "online_users",
				Users: h.Tracker.ListOnline(),
			})
		default:
			sess.sendEvent(models.ErrorEvent{Type: "error", Error: "unsupported event type on presence socket"})
		}
		eventsDispatched.Inc()
	}
}
