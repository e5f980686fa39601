package models

// Conversation is a chat room between two or more users. Direct (non-group)
// conversations between the same pair of users are unique; the store
// enforces lookup-or-create semantics.
type Conversation struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	IsGroup      bool     `json:"is_group"`
	// Name is only meaningful for group conversations
	Name string `json:"name,omitempty"`
	// Created/Updated timestamps (ns). UpdatedTS is bumped on every new
	// message and never moves backwards.
	CreatedTS int64 `json:"created_ts"`
	UpdatedTS int64 `json:"updated_ts"`
}

// HasParticipant reports whether user belongs to the conversation.
func (c *Conversation) HasParticipant(user string) bool {
	for _, p := range c.Participants {
		if p == user {
			return true
		}
	}
	return false
}
