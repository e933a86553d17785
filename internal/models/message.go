package models

import "time"

// Message represents a chat message. SeenBy only ever grows.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	SenderID       string    `json:"senderId" db:"sender_id"`
	Body           string    `json:"body" db:"body"`
	MediaURL       *string   `json:"mediaUrl,omitempty" db:"media_url"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	SeenBy         []string  `json:"seenBy"`
}

// SeenByUser reports whether userID is in the message's seen set
func (m *Message) SeenByUser(userID string) bool {
	for _, id := range m.SeenBy {
		if id == userID {
			return true
		}
	}
	return false
}
