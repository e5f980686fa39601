package models

// AttachmentKind classifies an attachment by its file signature.
type AttachmentKind string

const (
	KindImage    AttachmentKind = "image"
	KindAudio    AttachmentKind = "audio"
	KindVideo    AttachmentKind = "video"
	KindDocument AttachmentKind = "document"
	KindOther    AttachmentKind = "other"
)

// Attachment is the stored descriptor for a file attached to a message.
// The bytes themselves live with the blob-store collaborator; the core
// only keeps the descriptor.
type Attachment struct {
	Name string         `json:"name"`
	Kind AttachmentKind `json:"kind"`
	Size int64          `json:"size,omitempty"`
	URL  string         `json:"url,omitempty"`
	// Thumbnail is set for image attachments when generation succeeded;
	// generation is best-effort and never fails the message create.
	Thumbnail string `json:"thumbnail,omitempty"`
}

// AttachmentUpload is the inbound shape: raw bytes plus the client name.
// Data arrives base64-encoded on the wire (encoding/json []byte rules).
type AttachmentUpload struct {
	Name string `json:"name"`
	Data []byte `json:"data,omitempty"`
}

type Message struct {
	ID           string `json:"id"`
	Conversation string `json:"conversation_id"`
	Sender       string `json:"sender_id"`
	Content      string `json:"content"`
	TS           int64  `json:"ts"`

	// ReadBy is the set of users that have read the message. IsRead is
	// derived: true iff ReadBy covers every participant except the sender.
	ReadBy []string `json:"read_by,omitempty"`
	IsRead bool     `json:"is_read"`

	// ReplyTo quotes any prior message. ParentMessage makes this a thread
	// reply; it always references a thread root, never another reply.
	ReplyTo       string `json:"reply_to,omitempty"`
	ParentMessage string `json:"parent_message,omitempty"`

	// Forward lineage. A forwarded message references its origin and never
	// mutates it.
	ForwardedFrom string `json:"forwarded_from,omitempty"`
	ForwardedBy   string `json:"forwarded_by,omitempty"`
	IsForwarded   bool   `json:"is_forwarded,omitempty"`

	Attachment *Attachment `json:"attachment,omitempty"`
}

// HasReader reports whether user is already in the read_by set.
func (m *Message) HasReader(user string) bool {
	for _, r := range m.ReadBy {
		if r == user {
			return true
		}
	}
	return false
}
