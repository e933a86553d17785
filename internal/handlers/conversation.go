package handlers

import (
	"errors"

	"inboxrank/server/internal/inbox"
	"inboxrank/server/internal/models"
	"inboxrank/server/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrPrivateExists is the error text clients match to follow an existing private conversation
const ErrPrivateExists = "Private conversation already exists"

// CreateConversationRequest represents create conversation request body
type CreateConversationRequest struct {
	MemberIDs []string `json:"memberIds"`
	IsGroup   bool     `json:"isGroup"`
	Name      string   `json:"name,omitempty"`
}

// GetConversations returns the raw conversation list of the current user
func GetConversations(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	conversations, err := Conversations.ListConversations(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list conversations")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    conversations,
	})
}

// GetInbox returns the current user's conversations ranked by presence and recency
func GetInbox(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	conversations, err := Conversations.ListConversations(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list conversations")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	online := onlineUsers()
	entries := inbox.Rank(conversations, online, userID)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"conversations": entries,
			"onlineUsers":   online.IDs(),
		},
	})
}

// CreateConversation creates a group or private conversation
func CreateConversation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.IsGroup {
		return createGroup(c, userID, req)
	}
	return createPrivate(c, userID, req)
}

func createGroup(c *fiber.Ctx, userID string, req CreateConversationRequest) error {
	redirect, err := inbox.NewBuilder(Conversations).CreateGroup(c.UserContext(), userID, req.MemberIDs, req.Name)
	if err != nil {
		if inbox.IsValidation(err) || errors.Is(err, store.ErrNoMembers) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create group")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create group",
		})
	}

	if redirect.Existing {
		return existingResponse(c, redirect.ConversationID)
	}
	return createdResponse(c, redirect.ConversationID)
}

func createPrivate(c *fiber.Ctx, userID string, req CreateConversationRequest) error {
	if len(req.MemberIDs) != 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "A private conversation needs exactly one member",
		})
	}

	res, err := Conversations.CreateConversation(c.UserContext(), models.CreateConversationRequest{
		InitiatorID: userID,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		if errors.Is(err, store.ErrNoMembers) || errors.Is(err, store.ErrPrivateMembers) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create conversation")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create conversation",
		})
	}

	if res.Status == models.CreateStatusExistingPrivate {
		return existingResponse(c, res.ConversationID)
	}
	return createdResponse(c, res.ConversationID)
}

func existingResponse(c *fiber.Ctx, conversationID string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"success":        false,
		"error":          ErrPrivateExists,
		"conversationId": conversationID,
		"redirect":       inbox.Path(conversationID),
	})
}

func createdResponse(c *fiber.Ctx, conversationID string) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":        true,
		"conversationId": conversationID,
		"redirect":       inbox.Path(conversationID),
	})
}

// MarkSeen marks every message of a conversation as seen by the current user
func MarkSeen(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	conversationID := c.Params("conversationId")

	isMember, err := Conversations.IsParticipant(c.UserContext(), conversationID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if !isMember {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You are not a participant of this conversation",
		})
	}

	updated, err := Conversations.MarkSeen(c.UserContext(), conversationID, userID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to mark messages as seen")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to mark messages as seen",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"updatedCount": updated,
		},
	})
}

// GetSuggestedUsers lists the users that can be added to a group
func GetSuggestedUsers(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	users, err := Conversations.ListUsers(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	online := onlineUsers()
	for i := range users {
		users[i].IsOnline = online.Has(users[i].ID)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}
