package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"chatd/pkg/hub"
	"chatd/pkg/logger"
	"chatd/pkg/models"
	"chatd/pkg/store"
	"chatd/pkg/validation"
)

// HandleChat serves /ws/chat/{conversationID}. The connection joins the
// conversation's topic and its read loop dispatches inbound events in
// arrival order, so two sends on one socket broadcast in order.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["conversationID"]
	if _, err := store.GetConversation(convID); err != nil {
		http.Error(w, "unknown conversation", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws_upgrade_failed", "path", r.URL.Path, "error", err)
		return
	}

	sess := newSession(conn, r.URL.Query().Get("user_id"), h.sendQueue)
	sess.reqCtx = r.Context()
	topic := hub.ChatTopic(convID)
	h.Router.Join(topic, sess)
	chatConnections.Inc()
	logger.Info("chat_connected", "conn", sess.ID(), "user", sess.user, "conversation", convID)

	defer func() {
		h.Router.LeaveAll(sess)
		_ = sess.Close()
		chatConnections.Dec()
		logger.Info("chat_disconnected", "conn", sess.ID(), "conversation", convID)
	}()

	go sess.writePump()
	h.readChat(sess, convID, topic)
}

// readChat is the per-connection dispatch loop. Malformed or rejected
// events are answered with an error event on this connection only; they
// never terminate the loop or reach the topic.
func (h *Handlers) readChat(sess *session, convID, topic string) {
	limiter := h.newLimiter()
	sess.ws.SetReadLimit(maxFrameBytes)
	_ = sess.ws.SetReadDeadline(time.Now().Add(pongWait))
	sess.ws.SetPongHandler(func(string) error {
		return sess.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := sess.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws_read_failed", "conn", sess.ID(), "error", err)
			}
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
		if err := validation.ValidateInbound(&in); err != nil {
			sess.sendEvent(models.ErrorEvent{Type: "error", Error: err.Error()})
			continue
		}

		switch in.Type {
		case "message":
			h.handleMessage(sess, convID, topic, &in)
		case "typing":
			h.Router.Broadcast(topic, models.TypingEvent{
				Type:     "typing",
				UserID:   in.UserID,
				IsTyping: in.IsTyping,
			})
		case "read_receipt":
			h.handleReadReceipt(sess, topic, &in)
		default:
			sess.sendEvent(models.ErrorEvent{Type: "error", Error: "unsupported event type on chat socket"})
		}
		eventsDispatched.Inc()
	}
}

func (h *Handlers) handleMessage(sess *session, convID, topic string, in *models.Inbound) {
	msg, err := store.CreateMessage(convID, in.SenderID, in.Message, in.ReplyTo, in.ParentMessage, in.Attachment)
	if err != nil {
		sess.sendEvent(errorEvent(err))
		return
	}

	profile, perr := h.Dir.Resolve(sess.ctx(), in.SenderID)
	if perr != nil {
		profile.ID = in.SenderID
	}
	h.Router.Broadcast(topic, models.MessageEvent{
		Type:          "message",
		MessageID:     msg.ID,
		Message:       msg.Content,
		SenderID:      msg.Sender,
		SenderName:    profile.DisplayName,
		SenderPicture: profile.Picture,
		Conversation:  msg.Conversation,
		Timestamp:     msg.TS,
		ReplyTo:       msg.ReplyTo,
		ParentMessage: msg.ParentMessage,
		ForwardedFrom: msg.ForwardedFrom,
		Attachment:    msg.Attachment,
	})

	conv, cerr := store.GetConversation(convID)
	if cerr != nil {
		logger.Error("fanout_conversation_load_failed", "conversation", convID, "error", cerr)
		return
	}
	h.Fanout.FanMessage(sess.ctx(), msg, conv, msg.Sender)
}

func (h *Handlers) handleReadReceipt(sess *session, topic string, in *models.Inbound) {
	msg, err := store.MarkRead(in.MessageID, in.UserID)
	if err != nil {
		sess.sendEvent(errorEvent(err))
		return
	}
	h.Router.Broadcast(topic, models.ReadReceiptEvent{
		Type:      "read_receipt",
		UserID:    in.UserID,
		MessageID: msg.ID,
		IsRead:    msg.IsRead,
	})
}
