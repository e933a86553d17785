package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"inboxrank/server/internal/models"

	"github.com/rs/zerolog/log"
)

// EventOnlineUsers is both the announce event sent by a client and the
// snapshot event broadcast by the presence service
const EventOnlineUsers = "online-users"

// ErrPresenceUnavailable is returned when there is no live connection to attach to.
// It is informational: the tracker keeps its previous online set.
var ErrPresenceUnavailable = errors.New("presence connection unavailable")

// Conn is a connection to the presence service
type Conn interface {
	Connected() bool
	Emit(event string, payload any) error
	On(event string, handler func(payload json.RawMessage))
	Off(event string)
	// Done is closed when the connection goes away
	Done() <-chan struct{}
}

// Tracker keeps the set of online users reported by the presence service.
// Every snapshot replaces the whole set.
type Tracker struct {
	mu       sync.Mutex
	userID   string
	conn     Conn
	gen      uint64
	online   models.OnlineSet
	onChange func(models.OnlineSet)
}

// NewTracker creates a tracker announcing userID. onChange receives a copy of
// the online set after every snapshot and after teardown.
func NewTracker(userID string, onChange func(models.OnlineSet)) *Tracker {
	return &Tracker{
		userID:   userID,
		online:   models.OnlineSet{},
		onChange: onChange,
	}
}

// Online returns a copy of the current online set
func (t *Tracker) Online() models.OnlineSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online.Clone()
}

// Attached reports whether the tracker is subscribed to a connection
func (t *Tracker) Attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Attach subscribes to snapshots on conn and announces the user.
// A previously attached connection is torn down first.
func (t *Tracker) Attach(conn Conn) error {
	if conn == nil || !conn.Connected() {
		log.Debug().Str("user_id", t.userID).Msg("Presence socket not connected")
		return ErrPresenceUnavailable
	}

	t.mu.Lock()
	if t.conn == conn {
		t.mu.Unlock()
		return nil
	}
	prev := t.conn
	t.mu.Unlock()

	if prev != nil {
		t.detach(prev)
	}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.conn = conn
	t.mu.Unlock()

	// Subscribe before announcing so the reply snapshot cannot be missed
	conn.On(EventOnlineUsers, func(payload json.RawMessage) {
		t.handleSnapshot(gen, payload)
	})

	if err := conn.Emit(EventOnlineUsers, t.userID); err != nil {
		t.detach(conn)
		return fmt.Errorf("announce presence: %w", err)
	}

	return nil
}

// Detach unsubscribes from the current connection and clears the online set
func (t *Tracker) Detach() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn != nil {
		t.detach(conn)
	}
}

// detach tears down conn if it is still the attached connection
func (t *Tracker) detach(conn Conn) {
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	conn.Off(EventOnlineUsers)
	t.conn = nil
	t.gen++
	t.online = models.OnlineSet{}
	t.mu.Unlock()

	t.notify(models.OnlineSet{})
}

// Watch attaches to conn and holds the subscription until ctx ends or the
// connection closes. The subscription is always released on return.
func (t *Tracker) Watch(ctx context.Context, conn Conn) error {
	if err := t.Attach(conn); err != nil {
		return err
	}
	defer t.detach(conn)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.Done():
		log.Info().Str("user_id", t.userID).Msg("Presence connection closed")
		return nil
	}
}

func (t *Tracker) handleSnapshot(gen uint64, payload json.RawMessage) {
	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil {
		log.Warn().Err(err).Msg("Failed to parse online users snapshot")
		return
	}

	t.mu.Lock()
	if gen != t.gen || t.conn == nil {
		t.mu.Unlock()
		return
	}
	t.online = models.NewOnlineSet(ids...)
	snapshot := t.online.Clone()
	t.mu.Unlock()

	t.notify(snapshot)
}

func (t *Tracker) notify(online models.OnlineSet) {
	if t.onChange != nil {
		t.onChange(online)
	}
}
