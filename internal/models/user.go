package models

import "time"

// User represents a user in the system
type User struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Avatar   *string   `json:"avatar,omitempty" db:"avatar"`
	IsOnline bool      `json:"isOnline" db:"is_online"`
	LastSeen time.Time `json:"lastSeen" db:"last_seen"`
}

// Participant is a user's membership in a conversation
type Participant struct {
	ConversationID string `json:"conversationId" db:"conversation_id"`
	UserID         string `json:"userId" db:"user_id"`
	User           User   `json:"user"`
}
