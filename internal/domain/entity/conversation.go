package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sender identifies which side of the conversation produced a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Turn is one exchanged message. Turns are immutable once appended;
// edits remove the old turn and append a new one.
type Turn struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`

	// Audio-origin turns carry a reference to the recorded blob. Neither
	// field is persisted; the stored layout is {sender, text} only.
	IsAudio       bool   `json:"-"`
	AttachmentRef string `json:"-"`
}

// Conversation is an ordered list of turns plus id and creation time.
type Conversation struct {
	ID        string
	Messages  []Turn
	CreatedAt time.Time
}

// ConversationGroup is one recency bucket of the conversation list.
type ConversationGroup struct {
	Label         string
	Conversations []*Conversation
}

// Title is the first user message, used as the list label.
func (c *Conversation) Title() string {
	for _, t := range c.Messages {
		if t.Sender == SenderUser {
			return t.Text
		}
	}
	return "Untitled"
}

// conversationRecord is the persisted JSON layout: conversation_<id> ->
// {id, messages:[{sender, text}], timestamp}. The timestamp is RFC 3339.
type conversationRecord struct {
	ID        string `json:"id"`
	Messages  []Turn `json:"messages"`
	Timestamp string `json:"timestamp"`
}

// MarshalJSON encodes the conversation in the persisted layout.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(conversationRecord{
		ID:        c.ID,
		Messages:  c.Messages,
		Timestamp: c.CreatedAt.Format(time.RFC3339Nano),
	})
}

// UnmarshalJSON decodes and validates a persisted conversation. Records
// with an empty id or an unparseable timestamp are rejected so callers
// can skip them as corrupt instead of crashing on them later.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var rec conversationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("malformed conversation record: %w", err)
	}
	if rec.ID == "" {
		return errors.New("conversation record has empty id")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("conversation %s has bad timestamp %q: %w", rec.ID, rec.Timestamp, err)
	}
	c.ID = rec.ID
	c.Messages = rec.Messages
	c.CreatedAt = createdAt
	return nil
}
