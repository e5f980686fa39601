package validation

import (
	"strings"
	"testing"

	"chatd/pkg/models"
)

func TestValidateInbound(t *testing.T) {
	cases := []struct {
		name    string
		in      models.Inbound
		wantErr string
	}{
		{"valid message", models.Inbound{Type: "message", SenderID: "alice", Message: "hi"}, ""},
		{"attachment only", models.Inbound{Type: "message", SenderID: "alice", Attachment: &models.AttachmentUpload{Name: "f.png"}}, ""},
		{"message missing sender", models.Inbound{Type: "message", Message: "hi"}, "sender_id"},
		{"message empty", models.Inbound{Type: "message", SenderID: "alice"}, "message or attachment"},
		{"attachment without name", models.Inbound{Type: "message", SenderID: "alice", Attachment: &models.AttachmentUpload{}}, "attachment name"},
		{"valid typing", models.Inbound{Type: "typing", UserID: "alice", IsTyping: true}, ""},
		{"typing missing user", models.Inbound{Type: "typing"}, "user_id"},
		{"valid receipt", models.Inbound{Type: "read_receipt", UserID: "bob", MessageID: "m1"}, ""},
		{"receipt missing message", models.Inbound{Type: "read_receipt", UserID: "bob"}, "message_id"},
		{"roster query", models.Inbound{Type: "get_online_users"}, ""},
		{"no type", models.Inbound{}, "type is required"},
		{"unknown type", models.Inbound{Type: "dance"}, "unknown event type"},
	}
	for _, c := range cases {
		err := ValidateInbound(&c.in)
		if c.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", c.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), c.wantErr) {
			t.Errorf("%s: error = %v, want it to mention %q", c.name, err, c.wantErr)
		}
	}
}

func TestValidateInboundOversizedMessage(t *testing.T) {
	in := models.Inbound{Type: "message", SenderID: "alice", Message: strings.Repeat("x", MaxContentLen+1)}
	if err := ValidateInbound(&in); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected length error, got %v", err)
	}
}
