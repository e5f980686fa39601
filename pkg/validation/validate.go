package validation

import (
	"errors"
	"fmt"
	"strings"

	"chatd/pkg/models"
)

// MaxContentLen bounds message text. Longer payloads are rejected before
// they reach the store.
const MaxContentLen = 8192

// ValidateInbound checks the fields required by the event's declared type.
// It returns a single error listing every violation.
func ValidateInbound(in *models.Inbound) error {
	var errs []string
	switch in.Type {
	case "message":
		if in.SenderID == "" {
			errs = append(errs, "sender_id is required")
		}
		if in.Message == "" && in.Attachment == nil {
			errs = append(errs, "message or attachment is required")
		}
		if len(in.Message) > MaxContentLen {
			errs = append(errs, fmt.Sprintf("message exceeds %d bytes", MaxContentLen))
		}
		if in.Attachment != nil && in.Attachment.Name == "" {
			errs = append(errs, "attachment name is required")
		}
	case "typing":
		if in.UserID == "" {
			errs = append(errs, "user_id is required")
		}
	case "read_receipt":
		if in.UserID == "" {
			errs = append(errs, "user_id is required")
		}
		if in.MessageID == "" {
			errs = append(errs, "message_id is required")
		}
	case "get_online_users":
		// no fields
	case "":
		errs = append(errs, "type is required")
	default:
		errs = append(errs, fmt.Sprintf("unknown event type %q", in.Type))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
