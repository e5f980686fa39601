package models

// NotificationType enumerates the notification kinds the core produces or
// stores on behalf of collaborators.
type NotificationType string

const (
	NotifMessage       NotificationType = "message"
	NotifThreadReply   NotificationType = "thread_reply"
	NotifForward       NotificationType = "forwarded_message"
	NotifFriendRequest NotificationType = "friend_request"
	NotifFriendAccept  NotificationType = "friend_accept"
	NotifMention       NotificationType = "mention"
	NotifSystem        NotificationType = "system"
)

type Notification struct {
	ID        string           `json:"id"`
	Recipient string           `json:"recipient_id"`
	Sender    string           `json:"sender_id,omitempty"`
	Type      NotificationType `json:"notification_type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedTS int64            `json:"created_ts"`
	// Data is an opaque payload: conversation id, message id, attachment
	// presence, lineage ids for thread/forward events.
	Data map[string]any `json:"data,omitempty"`

	RelatedMessage      string `json:"related_message,omitempty"`
	RelatedConversation string `json:"related_conversation,omitempty"`
}
