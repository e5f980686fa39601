package fanout

import (
	"context"
	"fmt"
	"sync"

	"chatd/pkg/hub"
	"chatd/pkg/logger"
	"chatd/pkg/models"
	"chatd/pkg/store"
	"chatd/pkg/users"
)

// job is one recipient's notification: persist it, then push it live on
// the recipient's personal topic.
type job struct {
	notif *models.Notification
}

// Service turns stored messages into per-recipient notifications. Jobs are
// queued onto a bounded channel and drained by a fixed worker pool so a
// large group conversation never stalls the websocket dispatch path.
type Service struct {
	router  hub.Router
	dir     users.Directory
	queue   chan job
	workers int

	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

// New builds a stopped fanout service. workers and queueSize fall back to
// sane minimums when non-positive.
func New(router hub.Router, dir users.Directory, workers, queueSize int) *Service {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 4096
	}
	return &Service{
		router:  router,
		dir:     dir,
		queue:   make(chan job, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or
// Stop is called.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	logger.Info("fanout_started", "workers", s.workers, "queue", cap(s.queue))
}

// Stop signals the workers and waits for queued jobs in flight to finish.
func (s *Service) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		logger.Info("fanout_stopped")
	})
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.deliver(j.notif)
		}
	}
}

// deliver persists the notification and pushes it on the recipient's
// personal topic. Each recipient is independent: a store failure is
// logged and the live push is skipped for that recipient only.
func (s *Service) deliver(n *models.Notification) {
	if err := store.SaveNotification(n); err != nil {
		notificationsFailed.Inc()
		logger.Error("notification_save_failed", "recipient", n.Recipient, "type", string(n.Type), "error", err)
		return
	}
	notificationsFanned.Inc()
	s.router.Broadcast(hub.UserTopic(n.Recipient), models.NotificationEvent{
		Type:             "notification",
		NotificationID:   n.ID,
		Message:          n.Message,
		FromUser:         n.Sender,
		NotificationType: string(n.Type),
		Timestamp:        n.CreatedTS,
		Data:             n.Data,
	})
}

func (s *Service) enqueue(n *models.Notification) {
	select {
	case s.queue <- job{notif: n}:
	default:
		notificationsDropped.Inc()
		logger.Warn("fanout_queue_full", "recipient", n.Recipient, "type", string(n.Type))
	}
}

// FanMessage queues one notification per conversation participant other
// than the acting user. The notification type follows the message shape:
// forwarded messages and thread replies are labelled as such, everything
// else is a plain message notification.
func (s *Service) FanMessage(ctx context.Context, msg *models.Message, conv *models.Conversation, actor string) {
	ntype := models.NotifMessage
	switch {
	case msg.IsForwarded:
		ntype = models.NotifForward
	case msg.ParentMessage != "":
		ntype = models.NotifThreadReply
	}

	name := actor
	if s.dir != nil {
		if p, err := s.dir.Resolve(ctx, actor); err == nil && p.DisplayName != "" {
			name = p.DisplayName
		}
	}

	data := map[string]any{
		"conversation_id": conv.ID,
		"message_id":      msg.ID,
		"has_attachment":  msg.Attachment != nil,
	}
	if msg.ParentMessage != "" {
		data["parent_message"] = msg.ParentMessage
	}
	if msg.ForwardedFrom != "" {
		data["forwarded_from"] = msg.ForwardedFrom
	}

	text := notificationText(ntype, name, conv)
	for _, p := range conv.Participants {
		if p == actor {
			continue
		}
		s.enqueue(&models.Notification{
			Recipient:           p,
			Sender:              actor,
			Type:                ntype,
			Message:             text,
			Data:                data,
			RelatedMessage:      msg.ID,
			RelatedConversation: conv.ID,
		})
	}
}

// NotifyUser queues a single direct notification outside the message
// path: friend requests and accepts, mentions, system notices.
func (s *Service) NotifyUser(recipient, sender string, ntype models.NotificationType, text string, data map[string]any) {
	s.enqueue(&models.Notification{
		Recipient: recipient,
		Sender:    sender,
		Type:      ntype,
		Message:   text,
		Data:      data,
	})
}

func notificationText(t models.NotificationType, senderName string, conv *models.Conversation) string {
	where := ""
	if conv.IsGroup && conv.Name != "" {
		where = " in " + conv.Name
	}
	switch t {
	case models.NotifForward:
		return fmt.Sprintf("%s forwarded a message%s", senderName, where)
	case models.NotifThreadReply:
		return fmt.Sprintf("%s replied in a thread%s", senderName, where)
	default:
		return fmt.Sprintf("New message from %s%s", senderName, where)
	}
}
