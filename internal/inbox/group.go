package inbox

import (
	"context"
	"fmt"
	"unicode/utf8"

	"inboxrank/server/internal/models"

	"github.com/rs/zerolog/log"
)

const maxGroupName = models.MaxGroupNameLength

// ConversationCreator is the conversation-creation service
type ConversationCreator interface {
	CreateConversation(ctx context.Context, req models.CreateConversationRequest) (models.CreateConversationResult, error)
}

// Redirect is where the caller should navigate after a group is created
type Redirect struct {
	ConversationID string `json:"conversationId"`
	// Existing is set when the service pointed at a conversation that already existed
	Existing bool `json:"existing"`
}

// Path returns the inbox URL of the target conversation
func (r Redirect) Path() string {
	return Path(r.ConversationID)
}

// Builder validates group requests and hands them to the creation service
type Builder struct {
	creator ConversationCreator
}

// NewBuilder creates a Builder backed by creator
func NewBuilder(creator ConversationCreator) *Builder {
	return &Builder{creator: creator}
}

// ValidateGroup checks a group request without side effects
func ValidateGroup(selectedUserIDs []string, name string) error {
	if len(selectedUserIDs) == 0 {
		return ErrEmptySelection
	}
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxGroupName {
		return ErrNameTooLong
	}
	return nil
}

// CreateGroup creates a group conversation of currentUserID and selectedUserIDs.
// Validation failures are returned before the creation service is called.
func (b *Builder) CreateGroup(ctx context.Context, currentUserID string, selectedUserIDs []string, name string) (Redirect, error) {
	if err := ValidateGroup(selectedUserIDs, name); err != nil {
		return Redirect{}, err
	}

	res, err := b.creator.CreateConversation(ctx, models.CreateConversationRequest{
		InitiatorID: currentUserID,
		MemberIDs:   selectedUserIDs,
		IsGroup:     true,
		Name:        name,
	})
	if err != nil {
		return Redirect{}, &CreationError{Reason: "service error", Err: err}
	}

	switch res.Status {
	case models.CreateStatusExistingPrivate:
		log.Debug().
			Str("user_id", currentUserID).
			Str("conversation_id", res.ConversationID).
			Msg("Conversation already exists, redirecting")
		return Redirect{ConversationID: res.ConversationID, Existing: true}, nil
	case models.CreateStatusCreated:
		if res.ConversationID == "" {
			return Redirect{}, &CreationError{Reason: "missing conversation id"}
		}
		return Redirect{ConversationID: res.ConversationID}, nil
	default:
		return Redirect{}, &CreationError{Reason: fmt.Sprintf("unexpected status %q", res.Status)}
	}
}
