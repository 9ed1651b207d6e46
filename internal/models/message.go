package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message represents an individual entry within a conversation. Messages are appended in the order they
// are created and never modified afterwards; the ordering of a conversation is the only invariant the
// application keeps about them.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// Metadata would be filled only for bot replies that carry structured display fields.
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Metadata holds the optional structured fields the backend attaches to a reply. Every field is optional
// and is only displayed when present.
type Metadata struct {
	TrackingNumber string `json:"tracking_number,omitempty"`
	Status         string `json:"status,omitempty"`
	ClaimID        string `json:"claim_id,omitempty"`
	Email          string `json:"email,omitempty"`
}

// MessageType represents the author of a message.
type MessageType string

const (
	// MessageTypeUser represents a message typed by the user.
	MessageTypeUser MessageType = "user"
	// MessageTypeBot represents a message produced by the backend, including locally generated
	// error notices.
	MessageTypeBot MessageType = "bot"
)

// ErrorPrefix starts the bot notice that replaces a reply when a send fails.
const ErrorPrefix = "Error: "

// IsErrorNotice reports whether m is a locally generated send failure notice. Its text comes from an
// error, not from the backend, so front ends show it verbatim.
func (m Message) IsErrorNotice() bool {
	return m.Type == MessageTypeBot && strings.HasPrefix(m.Content, ErrorPrefix)
}

// NewUserMessage creates a user message with a fresh ID and the current time.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewBotMessage creates a bot message with a fresh ID and the current time. The metadata may be nil.
func NewBotMessage(content string, metadata *Metadata) Message {
	return Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeBot,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// IsEmpty reports whether none of the metadata fields are set. A nil Metadata is empty.
func (m *Metadata) IsEmpty() bool {
	if m == nil {
		return true
	}
	return m.TrackingNumber == "" && m.Status == "" && m.ClaimID == "" && m.Email == ""
}
