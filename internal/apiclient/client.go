package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"inboxrank/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultTimeout = 10 * time.Second

	// privateExists is the error text the API returns for an existing private conversation
	privateExists = "Private conversation already exists"
)

// ErrUnauthorized is returned when the API rejects the session token
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-success answer of the inbox API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error"`
	ConversationID string          `json:"conversationId"`
	Data           json.RawMessage `json:"data"`
}

// Client talks to the inbox HTTP API with a session token
type Client struct {
	baseURL string
	token   string
}

// New creates a client for the API at baseURL (e.g. http://localhost:8080)
func New(baseURL, token string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// PresenceURL returns the websocket URL of the presence hub
func (c *Client) PresenceURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, a *fiber.Agent) (int, envelope, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return 0, envelope{}, err
	}
	a.Cookie("token", c.token)
	a.Timeout(requestTimeout(ctx))

	if err := a.Parse(); err != nil {
		return 0, envelope{}, err
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return code, envelope{}, errors.Join(errs...)
	}
	if code == fiber.StatusUnauthorized {
		return code, envelope{}, ErrUnauthorized
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return code, envelope{}, fmt.Errorf("decode response: %w", err)
	}
	return code, env, nil
}

// requestTimeout bounds a request by the context deadline, never above defaultTimeout
func requestTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultTimeout
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return time.Millisecond
	}
	if remaining > defaultTimeout {
		return defaultTimeout
	}
	return remaining
}

// ListConversations fetches the raw conversation list of the session user
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	code, env, err := c.do(ctx, fiber.Get(c.baseURL+"/api/v1/conversations"))
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &APIError{Status: code, Message: env.Error}
	}

	var conversations []models.Conversation
	if err := json.Unmarshal(env.Data, &conversations); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return conversations, nil
}

// SuggestedUsers fetches the users that can be added to a group
func (c *Client) SuggestedUsers(ctx context.Context) ([]models.User, error) {
	code, env, err := c.do(ctx, fiber.Get(c.baseURL+"/api/v1/users/suggested"))
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &APIError{Status: code, Message: env.Error}
	}

	var users []models.User
	if err := json.Unmarshal(env.Data, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// CreateConversation asks the API to create a conversation. The initiator is
// the session user; req.InitiatorID is not sent.
func (c *Client) CreateConversation(ctx context.Context, req models.CreateConversationRequest) (models.CreateConversationResult, error) {
	a := fiber.Post(c.baseURL + "/api/v1/conversations").JSON(fiber.Map{
		"memberIds": req.MemberIDs,
		"isGroup":   req.IsGroup,
		"name":      req.Name,
	})

	code, env, err := c.do(ctx, a)
	if err != nil {
		return models.CreateConversationResult{}, err
	}

	switch {
	case env.Error == privateExists && env.ConversationID != "":
		return models.CreateConversationResult{
			Status:         models.CreateStatusExistingPrivate,
			ConversationID: env.ConversationID,
		}, nil
	case env.Success:
		return models.CreateConversationResult{
			Status:         models.CreateStatusCreated,
			ConversationID: env.ConversationID,
		}, nil
	default:
		return models.CreateConversationResult{}, &APIError{Status: code, Message: env.Error}
	}
}
