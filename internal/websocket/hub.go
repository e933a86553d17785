package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"inboxrank/server/internal/models"

	"github.com/rs/zerolog/log"
)

const statusTimeout = 5 * time.Second

// StatusStore persists a user's online flag
type StatusStore interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

// Hub is the presence service. It tracks connected clients and broadcasts the
// full set of online user IDs whenever it changes.
type Hub struct {
	// Registered clients mapped by user ID
	Clients map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Announce requests: the client's user is now online
	Announce chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	store StatusStore

	// done is closed when Run returns
	done chan struct{}

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new presence hub. store may be nil.
func NewHub(store StatusStore) *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Announce:   make(chan *Client),
		Unregister: make(chan *Client),
		store:      store,
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. Once it returns, Join, announce and Leave no longer block.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Announce:
			h.announceClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			return
		}
	}
}

// Done is closed when the hub stops
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Join hands client to the hub. It reports false if the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave hands client back to the hub for removal
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) announce(client *Client) {
	select {
	case h.Announce <- client:
	case <-h.done:
	}
}

// registerClient adds a client to the hub. The user counts as online only after announcing.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	existing, replaced := h.Clients[client.ID]
	wasOnline := replaced && existing.announced
	if replaced {
		// If user already has a connection, close the old one
		close(existing.Send)
	}
	h.Clients[client.ID] = client
	h.mu.Unlock()

	log.Info().Str("user_id", client.ID).Bool("replaced", replaced).Msg("Client connected")

	if wasOnline {
		h.setStatus(client.ID, false)
		h.broadcastSnapshot()
	}
}

// announceClient marks the client's user online and broadcasts the new snapshot
func (h *Hub) announceClient(client *Client) {
	h.mu.Lock()
	if h.Clients[client.ID] != client {
		h.mu.Unlock()
		return
	}
	client.announced = true
	h.mu.Unlock()

	h.setStatus(client.ID, true)
	h.broadcastSnapshot()
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if h.Clients[client.ID] != client {
		h.mu.Unlock()
		return
	}
	delete(h.Clients, client.ID)
	close(client.Send)
	wasOnline := client.announced
	h.mu.Unlock()

	log.Info().Str("user_id", client.ID).Msg("Client disconnected")

	if wasOnline {
		h.setStatus(client.ID, false)
		h.broadcastSnapshot()
	}
}

func (h *Hub) setStatus(userID string, online bool) {
	if h.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	if err := h.store.SetOnline(ctx, userID, online); err != nil {
		log.Error().Err(err).Str("user_id", userID).Bool("online", online).Msg("Failed to update online status")
	}
}

// broadcastSnapshot sends the full online user list to every client
func (h *Hub) broadcastSnapshot() {
	message := WSMessage{
		Type:      EventOnlineUsers,
		Payload:   h.GetOnlineUsers(),
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal online users snapshot")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, client := range h.Clients {
		select {
		case client.Send <- data:
		default:
			log.Warn().Str("user_id", userID).Msg("Failed to send snapshot to client")
		}
	}
}

// IsUserOnline checks if a user is connected and announced
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.Clients[userID]
	return ok && client.announced
}

// GetOnlineUsers returns the online user IDs in ascending order
func (h *Hub) GetOnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userIDs := make([]string, 0, len(h.Clients))
	for userID, client := range h.Clients {
		if client.announced {
			userIDs = append(userIDs, userID)
		}
	}
	sort.Strings(userIDs)

	return userIDs
}

// OnlineSet returns the online users as a set
func (h *Hub) OnlineSet() models.OnlineSet {
	return models.NewOnlineSet(h.GetOnlineUsers()...)
}

// GetOnlineCount returns the number of currently connected clients
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.Clients)
}
