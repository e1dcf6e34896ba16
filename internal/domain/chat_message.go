package domain

import (
	"strings"
	"time"
)

// MessageRole indicates which side of the conversation wrote a message.
type MessageRole string

const (
	RoleUser    MessageRole = "user"
	RoleSupport MessageRole = "support"
)

// Valid reports whether r is a known role.
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleSupport
}

// ChatMessage is a portal chat message stored for a ticket.
type ChatMessage struct {
	ID        string
	TicketKey string
	UserEmail string
	Message   string
	Role      MessageRole
	CreatedAt time.Time
}

// MessageSource tells whether a conversation entry came from the store or the tracker.
type MessageSource string

const (
	MessageSourceStore   MessageSource = "store"
	MessageSourceTracker MessageSource = "tracker"
)

// ConversationEntry is one item in a merged ticket conversation.
type ConversationEntry struct {
	ID          string
	SenderEmail string
	Message     string
	Role        MessageRole
	Source      MessageSource
	CreatedAt   time.Time
}

// DedupKey is the identity used to detect a tracker comment that mirrors a stored message.
func DedupKey(senderEmail, message string) string {
	return strings.ToLower(strings.TrimSpace(senderEmail)) + "\x00" + strings.ToLower(strings.TrimSpace(message))
}
