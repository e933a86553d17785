package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inboxrank/server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNoMembers            = errors.New("a conversation needs at least one other member")
	ErrPrivateMembers       = errors.New("a private conversation has exactly one other member")
)

// Store reads and writes inbox data through database/sql
type Store struct {
	db *sql.DB
}

// New creates a Store on db
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const listConversationsQuery = `
	SELECT c.id, c.is_group, c.name, c.last_message, c.updated_at
	FROM conversations c
	INNER JOIN participants me ON me.conversation_id = c.id
	WHERE me.user_id = $1
	ORDER BY c.updated_at DESC
`

const listParticipantsQuery = `
	SELECT p.conversation_id, u.id, u.name, u.avatar
	FROM participants p
	INNER JOIN users u ON u.id = p.user_id
	INNER JOIN participants me ON me.conversation_id = p.conversation_id
	WHERE me.user_id = $1
	ORDER BY p.conversation_id, p.joined_at ASC
`

const listMessagesQuery = `
	SELECT m.id, m.conversation_id, m.sender_id, m.body, m.media_url, m.created_at,
		COALESCE(array_agg(s.user_id ORDER BY s.seen_at) FILTER (WHERE s.user_id IS NOT NULL), '{}')
	FROM messages m
	INNER JOIN participants me ON me.conversation_id = m.conversation_id
	LEFT JOIN message_seen s ON s.message_id = m.id
	WHERE me.user_id = $1
	GROUP BY m.id
	ORDER BY m.created_at ASC
`

// ListConversations returns every conversation userID takes part in, with
// participants and messages, most recently updated first
func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, listConversationsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	index := map[string]int{}

	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.IsGroup, &conv.Name, &conv.LastMessage, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		index[conv.ID] = len(conversations)
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	if len(conversations) == 0 {
		return conversations, nil
	}

	if err := s.attachParticipants(ctx, userID, conversations, index); err != nil {
		return nil, err
	}
	if err := s.attachMessages(ctx, userID, conversations, index); err != nil {
		return nil, err
	}

	return conversations, nil
}

func (s *Store) attachParticipants(ctx context.Context, userID string, conversations []models.Conversation, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, listParticipantsQuery, userID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ConversationID, &p.User.ID, &p.User.Name, &p.User.Avatar); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		p.UserID = p.User.ID

		if i, ok := index[p.ConversationID]; ok {
			conversations[i].Participants = append(conversations[i].Participants, p)
		}
	}

	return rows.Err()
}

func (s *Store) attachMessages(ctx context.Context, userID string, conversations []models.Conversation, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, listMessagesQuery, userID)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	// text[] is decoded by pgx; a Map is not safe for concurrent use
	types := pgtype.NewMap()

	for rows.Next() {
		var m models.Message
		var seenBy []string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.MediaURL, &m.CreatedAt, types.SQLScanner(&seenBy)); err != nil {
			return fmt.Errorf("scan message: %w", err)
		}
		if seenBy == nil {
			seenBy = []string{}
		}
		m.SeenBy = seenBy

		if i, ok := index[m.ConversationID]; ok {
			conversations[i].Messages = append(conversations[i].Messages, m)
		}
	}

	return rows.Err()
}

// otherMembers drops the initiator, blanks and duplicates, keeping order
func otherMembers(initiatorID string, memberIDs []string) []string {
	seen := map[string]bool{initiatorID: true}
	out := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// FindPrivate returns the private conversation between two users
func (s *Store) FindPrivate(ctx context.Context, userAID, userBID string) (string, error) {
	query := `
		SELECT c.id
		FROM conversations c
		INNER JOIN participants p1 ON p1.conversation_id = c.id
		INNER JOIN participants p2 ON p2.conversation_id = c.id
		WHERE c.is_group = FALSE
			AND p1.user_id = $1
			AND p2.user_id = $2
		LIMIT 1
	`

	var id string
	if err := s.db.QueryRowContext(ctx, query, userAID, userBID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrConversationNotFound
		}
		return "", err
	}
	return id, nil
}

// CreateConversation implements the conversation-creation service. A private
// request that matches an existing conversation reports it instead of creating one.
func (s *Store) CreateConversation(ctx context.Context, req models.CreateConversationRequest) (models.CreateConversationResult, error) {
	members := otherMembers(req.InitiatorID, req.MemberIDs)
	if len(members) == 0 {
		return models.CreateConversationResult{}, ErrNoMembers
	}

	if !req.IsGroup {
		if len(members) != 1 {
			return models.CreateConversationResult{}, ErrPrivateMembers
		}

		existingID, err := s.FindPrivate(ctx, req.InitiatorID, members[0])
		if err == nil {
			return models.CreateConversationResult{
				Status:         models.CreateStatusExistingPrivate,
				ConversationID: existingID,
			}, nil
		}
		if !errors.Is(err, ErrConversationNotFound) {
			return models.CreateConversationResult{}, fmt.Errorf("find private conversation: %w", err)
		}
	}

	id, err := s.insertConversation(ctx, req, members)
	if err != nil {
		return models.CreateConversationResult{}, err
	}

	log.Info().
		Str("conversation_id", id).
		Str("initiator_id", req.InitiatorID).
		Bool("is_group", req.IsGroup).
		Int("members", len(members)+1).
		Msg("Conversation created")

	return models.CreateConversationResult{
		Status:         models.CreateStatusCreated,
		ConversationID: id,
	}, nil
}

func (s *Store) insertConversation(ctx context.Context, req models.CreateConversationRequest, members []string) (id string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	id = uuid.NewString()
	now := time.Now()
	name := sql.NullString{String: req.Name, Valid: req.IsGroup && req.Name != ""}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, is_group, name, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, id, req.IsGroup, name, req.InitiatorID, now); err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}

	for _, userID := range append([]string{req.InitiatorID}, members...) {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO participants (conversation_id, user_id, joined_at)
			VALUES ($1, $2, $3)
		`, id, userID, now); err != nil {
			return "", fmt.Errorf("insert participant %s: %w", userID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	return id, nil
}

// MarkSeen adds userID to the seen set of every message in the conversation
func (s *Store) MarkSeen(ctx context.Context, conversationID, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO message_seen (message_id, user_id, seen_at)
		SELECT m.id, $2, $3 FROM messages m WHERE m.conversation_id = $1
		ON CONFLICT DO NOTHING
	`, conversationID, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("mark seen: %w", err)
	}
	return result.RowsAffected()
}

// IsParticipant reports whether userID belongs to the conversation
func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM participants WHERE conversation_id = $1 AND user_id = $2)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

// ListUsers returns the users that can be added to a group, by name
func (s *Store) ListUsers(ctx context.Context, excludeUserID string) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, avatar, is_online, last_seen
		FROM users
		WHERE id <> $1
		ORDER BY name ASC
	`, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Avatar, &u.IsOnline, &u.LastSeen); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetOnline records a user's presence flag
func (s *Store) SetOnline(ctx context.Context, userID string, online bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_online = $1, last_seen = $2 WHERE id = $3
	`, online, time.Now(), userID)
	return err
}
