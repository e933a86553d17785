package handlers

import (
	"context"

	"inboxrank/server/internal/models"
	ws "inboxrank/server/internal/websocket"
)

// ConversationStore is the data source and creation service behind the API
type ConversationStore interface {
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, req models.CreateConversationRequest) (models.CreateConversationResult, error)
	MarkSeen(ctx context.Context, conversationID, userID string) (int64, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ListUsers(ctx context.Context, excludeUserID string) ([]models.User, error)
}

var (
	// Conversations is the conversation store used by the handlers
	Conversations ConversationStore

	// WSHub is the global presence hub instance
	WSHub *ws.Hub
)

// Init wires the handlers to their dependencies
func Init(store ConversationStore, hub *ws.Hub) {
	Conversations = store
	WSHub = hub
}

// onlineUsers returns the hub's online set, empty when the hub is not running
func onlineUsers() models.OnlineSet {
	if WSHub == nil {
		return models.OnlineSet{}
	}
	return WSHub.OnlineSet()
}
