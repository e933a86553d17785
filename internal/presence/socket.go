package presence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

var ErrSocketClosed = errors.New("presence socket closed")

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outbound struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Socket is a websocket connection to the presence hub
type Socket struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.RWMutex
	handlers map[string]func(json.RawMessage)

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the presence hub at url, authenticating with the session token cookie
func Dial(ctx context.Context, url, token string) (*Socket, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", "token="+token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}

	s := newSocket(conn)
	go s.readLoop()
	return s, nil
}

func newSocket(conn *websocket.Conn) *Socket {
	return &Socket{
		conn:     conn,
		handlers: make(map[string]func(json.RawMessage)),
		done:     make(chan struct{}),
	}
}

// Connected reports whether the socket is open. A nil Socket is never connected.
func (s *Socket) Connected() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// On registers the handler for event, replacing any previous one
func (s *Socket) On(event string, handler func(json.RawMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = handler
}

func (s *Socket) Off(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, event)
}

// Emit sends an event to the hub
func (s *Socket) Emit(event string, payload any) error {
	if !s.Connected() {
		return ErrSocketClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(outbound{Type: event, Payload: payload, Timestamp: time.Now()})
}

// Close says goodbye to the hub and releases the connection
func (s *Socket) Close() error {
	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	s.shutdown()
	return s.conn.Close()
}

func (s *Socket) shutdown() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Socket) readLoop() {
	defer s.shutdown()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Presence socket read error")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("Failed to parse presence event")
			continue
		}

		s.mu.RLock()
		handler := s.handlers[msg.Type]
		s.mu.RUnlock()

		if handler != nil {
			handler(msg.Payload)
		} else if msg.Type == "error" {
			log.Warn().RawJSON("payload", msg.Payload).Msg("Presence hub reported an error")
		}
	}
}
