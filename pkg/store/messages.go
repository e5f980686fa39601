package store

import (
	"encoding/json"
	"fmt"
	"time"

	"chatd/pkg/logger"
	"chatd/pkg/models"
	"chatd/pkg/utils"
)

// Key layout:
//   msg:<id>                      -> Message JSON (canonical record)
//   cmsg:<convID>:<ts>-<seq>      -> message id (per-conversation time index)
//   tmsg:<rootID>:<ts>-<seq>      -> message id (thread-children index)

func msgKey(id string) string             { return "msg:" + id }
func convMsgPrefix(convID string) string  { return "cmsg:" + convID + ":" }
func threadMsgPrefix(rootID string) string { return "tmsg:" + rootID + ":" }

// AttachmentProcessor turns an inbound upload into a stored descriptor:
// signature classification, blob persistence and best-effort thumbnailing.
// A non-nil descriptor alongside an error means processing partially
// succeeded; the error is transient and must not fail the message create.
type AttachmentProcessor interface {
	Process(upload *models.AttachmentUpload) (*models.Attachment, error)
}

var attachProc AttachmentProcessor

// SetAttachmentProcessor installs the processor used by CreateMessage.
func SetAttachmentProcessor(p AttachmentProcessor) { attachProc = p }

// CreateMessage validates references, normalizes thread depth and persists
// a new message in the conversation. The conversation's updated_ts is
// bumped. Attachment processing failures are logged and swallowed.
func CreateMessage(convID, sender, content, replyTo, parent string, upload *models.AttachmentUpload) (*models.Message, error) {
	conv, err := GetConversation(convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(sender) {
		return nil, fmt.Errorf("user %s is not in conversation %s: %w", sender, convID, ErrForbidden)
	}
	if replyTo != "" {
		if _, err := GetMessage(replyTo); err != nil {
			return nil, fmt.Errorf("reply_to: %w", err)
		}
	}
	if parent != "" {
		p, err := GetMessage(parent)
		if err != nil {
			return nil, fmt.Errorf("parent_message: %w", err)
		}
		// threads are one level deep: replying to a reply attaches to the
		// root instead
		if p.ParentMessage != "" {
			parent = p.ParentMessage
		}
	}

	m := &models.Message{
		ID:            utils.GenMessageID(),
		Conversation:  convID,
		Sender:        sender,
		Content:       content,
		TS:            time.Now().UTC().UnixNano(),
		ReplyTo:       replyTo,
		ParentMessage: parent,
	}
	if upload != nil && attachProc != nil {
		desc, perr := attachProc.Process(upload)
		if perr != nil {
			logger.Warn("attachment_process_failed", "msg", m.ID, "name", upload.Name, "error", perr)
		}
		m.Attachment = desc
	}
	if err := saveMessage(m); err != nil {
		return nil, err
	}
	if err := touchConversation(convID, m.TS); err != nil {
		logger.Warn("conversation_touch_failed", "conversation", convID, "error", err)
	}
	messagesCreated.Inc()
	logger.Info("message_saved", "id", m.ID, "conversation", convID, "thread", m.ParentMessage != "", "attachment", m.Attachment != nil)
	return m, nil
}

// GetMessage loads a message by id.
func GetMessage(id string) (*models.Message, error) {
	v, err := get(msgKey(id))
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", id, err)
	}
	var m models.Message
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, fmt.Errorf("invalid message record %s: %w", id, err)
	}
	return &m, nil
}

// MarkRead adds user to the message's read_by set and recomputes is_read.
// Idempotent, and safe under concurrent calls from different participants:
// the union happens under a per-message lock, never on a caller's copy.
func MarkRead(messageID, user string) (*models.Message, error) {
	mu := lockKey(msgKey(messageID))
	mu.Lock()
	defer mu.Unlock()

	m, err := GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	conv, err := GetConversation(m.Conversation)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(user) {
		return nil, fmt.Errorf("user %s is not in conversation %s: %w", user, conv.ID, ErrForbidden)
	}
	if m.HasReader(user) {
		return m, nil
	}
	m.ReadBy = append(m.ReadBy, user)
	m.IsRead = readByAll(m, conv)
	if err := writeMessage(m); err != nil {
		return nil, err
	}
	readsMarked.Inc()
	return m, nil
}

// readByAll reports whether every participant other than the sender is in
// read_by.
func readByAll(m *models.Message, conv *models.Conversation) bool {
	for _, p := range conv.Participants {
		if p == m.Sender {
			continue
		}
		if !m.HasReader(p) {
			return false
		}
	}
	return true
}

// GetThread returns the thread root plus all direct children in ascending
// timestamp order. The argument may be the root or any child.
func GetThread(messageID string) ([]*models.Message, error) {
	m, err := GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	root := m
	if m.ParentMessage != "" {
		if root, err = GetMessage(m.ParentMessage); err != nil {
			return nil, err
		}
	}
	out := []*models.Message{root}
	err = scan(threadMsgPrefix(root.ID), func(_ string, val []byte) bool {
		child, gerr := GetMessage(string(val))
		if gerr == nil {
			out = append(out, child)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Forward creates a new message in targetConv referencing the origin. The
// origin is never mutated; reply/thread references are not carried over.
func Forward(messageID, user, targetConv string) (*models.Message, error) {
	origin, err := GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	conv, err := GetConversation(targetConv)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(user) {
		return nil, fmt.Errorf("user %s is not in conversation %s: %w", user, targetConv, ErrForbidden)
	}
	m := &models.Message{
		ID:            utils.GenMessageID(),
		Conversation:  targetConv,
		Sender:        user,
		Content:       origin.Content,
		TS:            time.Now().UTC().UnixNano(),
		ForwardedFrom: origin.ID,
		ForwardedBy:   user,
		IsForwarded:   true,
	}
	if origin.Attachment != nil {
		att := *origin.Attachment
		m.Attachment = &att
	}
	if err := saveMessage(m); err != nil {
		return nil, err
	}
	if err := touchConversation(targetConv, m.TS); err != nil {
		logger.Warn("conversation_touch_failed", "conversation", targetConv, "error", err)
	}
	messagesForwarded.Inc()
	logger.Info("message_forwarded", "origin", origin.ID, "id", m.ID, "conversation", targetConv, "by", user)
	return m, nil
}

// ListMessages returns all messages of a conversation in insertion order.
func ListMessages(convID string) ([]*models.Message, error) {
	if _, err := GetConversation(convID); err != nil {
		return nil, err
	}
	var out []*models.Message
	err := scan(convMsgPrefix(convID), func(_ string, val []byte) bool {
		m, gerr := GetMessage(string(val))
		if gerr == nil {
			out = append(out, m)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetUnreadCount counts messages in the conversation not sent by user and
// not yet marked read by every other participant.
func GetUnreadCount(convID, user string) (int, error) {
	msgs, err := ListMessages(convID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range msgs {
		if m.Sender != user && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// UnreadCounts returns a conversation id -> unread count map covering every
// conversation the user participates in; conversations with zero unread are
// omitted.
func UnreadCounts(user string) (map[string]int, error) {
	convs, err := ListConversations(user)
	if err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, c := range convs {
		n, err := GetUnreadCount(c.ID, user)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			out[c.ID] = n
		}
	}
	return out, nil
}

// saveMessage writes the canonical record plus the conversation index and,
// for thread replies, the thread-children index.
func saveMessage(m *models.Message) error {
	if err := writeMessage(m); err != nil {
		return err
	}
	suffix := orderedSuffix(m.TS)
	if err := set(convMsgPrefix(m.Conversation)+suffix, []byte(m.ID)); err != nil {
		return err
	}
	if m.ParentMessage != "" {
		if err := set(threadMsgPrefix(m.ParentMessage)+suffix, []byte(m.ID)); err != nil {
			return err
		}
	}
	return nil
}

func writeMessage(m *models.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return set(msgKey(m.ID), b)
}
