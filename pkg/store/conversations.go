package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"chatd/pkg/logger"
	"chatd/pkg/models"
	"chatd/pkg/utils"
)

// Key layout:
//   conv:<id>          -> Conversation JSON
//   direct:<a>|<b>     -> conversation id for the (a,b) direct pair, a < b

func convKey(id string) string { return "conv:" + id }

func directKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "direct:" + a + "|" + b
}

// CreateConversation persists a new conversation. Direct conversations must
// have exactly two participants; use GetOrCreateDirectConversation for the
// dedup guarantee.
func CreateConversation(participants []string, isGroup bool, name string) (*models.Conversation, error) {
	if len(participants) < 2 {
		return nil, fmt.Errorf("conversation needs at least two participants: %w", ErrInvalid)
	}
	if !isGroup && len(participants) != 2 {
		return nil, fmt.Errorf("direct conversation needs exactly two participants: %w", ErrInvalid)
	}
	now := time.Now().UTC().UnixNano()
	c := &models.Conversation{
		ID:           utils.GenConversationID(),
		Participants: append([]string(nil), participants...),
		IsGroup:      isGroup,
		Name:         name,
		CreatedTS:    now,
		UpdatedTS:    now,
	}
	sort.Strings(c.Participants)
	if err := saveConversation(c); err != nil {
		return nil, err
	}
	logger.Info("conversation_created", "id", c.ID, "group", isGroup, "participants", len(participants))
	return c, nil
}

// GetOrCreateDirectConversation returns the unique direct conversation
// between a and b, creating it on first use. Safe under concurrent calls
// for the same pair.
func GetOrCreateDirectConversation(a, b string) (*models.Conversation, error) {
	if a == "" || b == "" || a == b {
		return nil, fmt.Errorf("direct conversation needs two distinct users: %w", ErrInvalid)
	}
	dk := directKey(a, b)
	mu := lockKey(dk)
	mu.Lock()
	defer mu.Unlock()

	if v, err := get(dk); err == nil {
		return GetConversation(string(v))
	}
	c, err := CreateConversation([]string{a, b}, false, "")
	if err != nil {
		return nil, err
	}
	if err := set(dk, []byte(c.ID)); err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation loads a conversation by id.
func GetConversation(id string) (*models.Conversation, error) {
	v, err := get(convKey(id))
	if err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, err)
	}
	var c models.Conversation
	if err := json.Unmarshal(v, &c); err != nil {
		return nil, fmt.Errorf("invalid conversation record %s: %w", id, err)
	}
	return &c, nil
}

// ListConversations returns every conversation the user participates in,
// most recently active first.
func ListConversations(user string) ([]*models.Conversation, error) {
	var out []*models.Conversation
	err := scan("conv:", func(key string, val []byte) bool {
		if strings.Count(key, ":") != 1 {
			return true
		}
		var c models.Conversation
		if json.Unmarshal(val, &c) != nil {
			return true
		}
		if c.HasParticipant(user) {
			out = append(out, &c)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedTS > out[j].UpdatedTS })
	return out, nil
}

func saveConversation(c *models.Conversation) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return set(convKey(c.ID), b)
}

// touchConversation bumps updated_ts to ts if ts is newer; updated_ts
// never moves backwards.
func touchConversation(id string, ts int64) error {
	mu := lockKey(convKey(id))
	mu.Lock()
	defer mu.Unlock()
	c, err := GetConversation(id)
	if err != nil {
		return err
	}
	if ts <= c.UpdatedTS {
		return nil
	}
	c.UpdatedTS = ts
	return saveConversation(c)
}
