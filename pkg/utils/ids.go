package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenConversationID returns a new conversation id.
func GenConversationID() string { return "c_" + compact() }

// GenMessageID returns a new message id.
func GenMessageID() string { return "m_" + compact() }

// GenNotificationID returns a new notification id.
func GenNotificationID() string { return "n_" + compact() }

// GenConnectionID returns an id for a live connection; unique per socket,
// never persisted.
func GenConnectionID() string { return "conn_" + compact() }

func compact() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
