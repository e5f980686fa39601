package ws

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"chatd/pkg/config"
	"chatd/pkg/fanout"
	"chatd/pkg/hub"
	"chatd/pkg/models"
	"chatd/pkg/presence"
	"chatd/pkg/store"
	"chatd/pkg/users"
)

// Handlers owns the websocket endpoints and their collaborators.
type Handlers struct {
	Router  hub.Router
	Fanout  *fanout.Service
	Tracker *presence.Tracker
	Dir     users.Directory

	sendQueue  int
	eventRPS   float64
	eventBurst int
	upgrader   websocket.Upgrader
}

// NewHandlers wires the websocket surface from config. An empty
// allowed-origins list accepts upgrades from any origin.
func NewHandlers(router hub.Router, fo *fanout.Service, tracker *presence.Tracker, dir users.Directory, cfg *config.Config) *Handlers {
	h := &Handlers{
		Router:     router,
		Fanout:     fo,
		Tracker:    tracker,
		Dir:        dir,
		sendQueue:  cfg.Hub.SendQueue,
		eventRPS:   cfg.Limits.EventRPS,
		eventBurst: cfg.Limits.EventBurst,
	}
	allowed := append([]string(nil), cfg.Server.AllowedOrigins...)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, a := range allowed {
				if a == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

func (h *Handlers) newLimiter() *rate.Limiter {
	rps := h.eventRPS
	if rps <= 0 {
		rps = 50
	}
	burst := h.eventBurst
	if burst <= 0 {
		burst = 100
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// errorEvent maps a store error onto the single-connection error reply.
func errorEvent(err error) models.ErrorEvent {
	msg := "internal error"
	switch {
	case errors.Is(err, store.ErrNotFound):
		msg = "not found"
	case errors.Is(err, store.ErrForbidden):
		msg = "not a participant"
	case errors.Is(err, store.ErrInvalid):
		msg = err.Error()
	}
	return models.ErrorEvent{Type: "error", Error: msg}
}
