package models

// Inbound is the envelope for client events arriving on a websocket. Only
// the fields relevant to the declared type are examined; unknown types are
// answered with a single error event on the originating connection.
type Inbound struct {
	Type string `json:"type"`

	// type == "message"
	Message        string            `json:"message,omitempty"`
	SenderID       string            `json:"sender_id,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Attachment     *AttachmentUpload `json:"attachment,omitempty"`
	ReplyTo        string            `json:"reply_to,omitempty"`
	ParentMessage  string            `json:"parent_message,omitempty"`

	// type == "typing" / "read_receipt"
	UserID    string `json:"user_id,omitempty"`
	IsTyping  bool   `json:"is_typing,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// Outbound event shapes. Every event carries its discriminator in Type so
// clients can switch on one field.

type MessageEvent struct {
	Type          string      `json:"type"` // "message"
	MessageID     string      `json:"message_id"`
	Message       string      `json:"message"`
	SenderID      string      `json:"sender_id"`
	SenderName    string      `json:"sender_name,omitempty"`
	SenderPicture string      `json:"sender_picture,omitempty"`
	Conversation  string      `json:"conversation_id"`
	Timestamp     int64       `json:"timestamp"`
	ReplyTo       string      `json:"reply_to,omitempty"`
	ParentMessage string      `json:"parent_message,omitempty"`
	ForwardedFrom string      `json:"forwarded_from,omitempty"`
	Attachment    *Attachment `json:"attachment,omitempty"`
}

type TypingEvent struct {
	Type     string `json:"type"` // "typing"
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type ReadReceiptEvent struct {
	Type      string `json:"type"` // "read_receipt"
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
	IsRead    bool   `json:"is_read"`
}

type PresenceEvent struct {
	Type     string `json:"type"` // "presence"
	UserID   string `json:"user_id"`
	Online   bool   `json:"online"`
	LastSeen int64  `json:"last_seen,omitempty"`
}

type NotificationEvent struct {
	Type             string         `json:"type"` // "notification"
	NotificationID   string         `json:"notification_id"`
	Message          string         `json:"message"`
	FromUser         string         `json:"from_user,omitempty"`
	NotificationType string         `json:"notification_type"`
	Timestamp        int64          `json:"timestamp"`
	Data             map[string]any `json:"data,omitempty"`
}

type OnlineUsersEvent struct {
	Type  string   `json:"type"` // "online_users"
	Users []string `json:"users"`
}

// ErrorEvent is sent only to the connection that produced a bad event.
type ErrorEvent struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}
