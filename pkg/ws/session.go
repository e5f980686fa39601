// Package ws carries the websocket surface: one handler per socket kind,
// each owning a read loop that dispatches inbound events in arrival order.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatd/pkg/logger"
	"chatd/pkg/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	// maxFrameBytes bounds a single inbound frame; inline attachments are
	// base64 inside the JSON so this must comfortably exceed the upload cap.
	maxFrameBytes = 16 << 20
)

// ErrSlowConsumer is returned by Send when the outbound buffer is full.
// The hub treats it as fatal for the connection.
var ErrSlowConsumer = errors.New("ws: send queue full")

var errSessionClosed = errors.New("ws: session closed")

// session is the hub.Conn implementation backing one websocket. Writes go
// through a bounded channel drained by a single writer goroutine, so Send
// never blocks a broadcast.
type session struct {
	id   string
	user string
	ws   *websocket.Conn
	send chan []byte

	reqCtx context.Context

	closeOnce sync.Once
	done      chan struct{}
}

// ctx is the request-scoped context for lookups made while dispatching
// this connection's events.
func (s *session) ctx() context.Context {
	if s.reqCtx != nil {
		return s.reqCtx
	}
	return context.Background()
}

func newSession(ws *websocket.Conn, user string, queue int) *session {
	if queue <= 0 {
		queue = 256
	}
	return &session{
		id:   utils.GenConnectionID(),
		user: user,
		ws:   ws,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
}

func (s *session) ID() string { return s.id }

// Send enqueues payload for the writer goroutine. It fails fast instead
// of blocking when the session is closed or too far behind.
func (s *session) Send(payload []byte) error {
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}
	select {
	case s.send <- payload:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close is idempotent; it stops the writer and closes the socket.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.ws.Close()
	})
	return nil
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings. It owns all writes to the socket.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("ws_write_failed", "conn", s.id, "error", err)
				_ = s.Close()
				return
			}
		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.Close()
				return
			}
		}
	}
}

// sendEvent marshals and enqueues an event for this session only. Errors
// are logged; a reply the client never sees is not worth killing the
// read loop for.
func (s *session) sendEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("ws_event_marshal_failed", "conn", s.id, "error", err)
		return
	}
	if err := s.Send(payload); err != nil {
		logger.Debug("ws_event_send_failed", "conn", s.id, "error", err)
	}
}
