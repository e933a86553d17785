package models

import "time"

// MaxGroupNameLength is the longest group name accepted, in characters
const MaxGroupNameLength = 25

// Conversation is the inbox read model of a chat thread
type Conversation struct {
	ID           string        `json:"id" db:"id"`
	IsGroup      bool          `json:"isGroup" db:"is_group"`
	Name         *string       `json:"name,omitempty" db:"name"` // Group only
	Participants []Participant `json:"participants"`
	LastMessage  string        `json:"lastMessage" db:"last_message"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
	Messages     []Message     `json:"messages,omitempty"` // Used only to derive unseen counts
}

// DisplayName returns the group name, or "" when unset
func (c *Conversation) DisplayName() string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}

// InboxEntry is a conversation annotated for display in the inbox
type InboxEntry struct {
	Conversation
	UnseenCount int    `json:"unseenCount"`
	Live        bool   `json:"live"`
	Title       string `json:"title"`
	Preview     string `json:"preview"`
	Href        string `json:"href"`
}

// CreateStatus is the outcome reported by the conversation-creation service
type CreateStatus string

const (
	CreateStatusCreated         CreateStatus = "created"
	CreateStatusExistingPrivate CreateStatus = "existing_private"
)

// CreateConversationRequest is the input of the conversation-creation service
type CreateConversationRequest struct {
	InitiatorID string   `json:"initiatorId"`
	MemberIDs   []string `json:"memberIds"`
	IsGroup     bool     `json:"isGroup"`
	Name        string   `json:"name,omitempty"`
}

// CreateConversationResult is a successful answer of the conversation-creation service
type CreateConversationResult struct {
	Status         CreateStatus `json:"status"`
	ConversationID string       `json:"conversationId"`
}
