package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"inboxrank/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event   string
	payload any
}

type fakeConn struct {
	mu        sync.Mutex
	connected bool
	emitErr   error
	emits     []emitted
	handlers  map[string]func(json.RawMessage)
	done      chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		connected: true,
		handlers:  make(map[string]func(json.RawMessage)),
		done:      make(chan struct{}),
	}
}

func (f *fakeConn) Connected() bool { return f.connected }

func (f *fakeConn) Emit(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, emitted{event, payload})
	return f.emitErr
}

func (f *fakeConn) On(event string, handler func(json.RawMessage)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = handler
}

func (f *fakeConn) Off(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, event)
}

func (f *fakeConn) Done() <-chan struct{} { return f.done }

func (f *fakeConn) subscribed(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[event]
	return ok
}

// push delivers a snapshot through the registered handler
func (f *fakeConn) push(t *testing.T, ids ...string) {
	t.Helper()
	f.mu.Lock()
	handler := f.handlers[EventOnlineUsers]
	f.mu.Unlock()
	require.NotNil(t, handler, "no snapshot handler registered")

	data, err := json.Marshal(ids)
	require.NoError(t, err)
	handler(data)
}

type recorder struct {
	mu   sync.Mutex
	sets []models.OnlineSet
}

func (r *recorder) record(s models.OnlineSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = append(r.sets, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets)
}

func (r *recorder) last() models.OnlineSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets[len(r.sets)-1]
}

func TestAttachAnnouncesAndSubscribes(t *testing.T) {
	rec := &recorder{}
	tracker := NewTracker("A", rec.record)
	conn := newFakeConn()

	require.NoError(t, tracker.Attach(conn))
	assert.True(t, tracker.Attached())
	assert.True(t, conn.subscribed(EventOnlineUsers))
	require.Len(t, conn.emits, 1)
	assert.Equal(t, emitted{EventOnlineUsers, "A"}, conn.emits[0])

	// Attaching the same connection again is a no-op
	require.NoError(t, tracker.Attach(conn))
	assert.Len(t, conn.emits, 1)
}

func TestSnapshotReplacesOnlineSet(t *testing.T) {
	rec := &recorder{}
	tracker := NewTracker("A", rec.record)
	conn := newFakeConn()
	require.NoError(t, tracker.Attach(conn))

	conn.push(t, "A", "B")
	assert.Equal(t, []string{"A", "B"}, tracker.Online().IDs())

	conn.push(t, "C")
	assert.Equal(t, []string{"C"}, tracker.Online().IDs())
	assert.Equal(t, []string{"C"}, rec.last().IDs())

	conn.push(t)
	assert.Empty(t, tracker.Online())
	assert.Equal(t, 3, rec.count())
}

func TestMalformedSnapshotIgnored(t *testing.T) {
	rec := &recorder{}
	tracker := NewTracker("A", rec.record)
	conn := newFakeConn()
	require.NoError(t, tracker.Attach(conn))
	conn.push(t, "B")

	conn.handlers[EventOnlineUsers](json.RawMessage(`{"not":"a list"}`))

	assert.Equal(t, []string{"B"}, tracker.Online().IDs())
	assert.Equal(t, 1, rec.count())
}

func TestDetachResetsAndIgnoresLateEvents(t *testing.T) {
	rec := &recorder{}
	tracker := NewTracker("A", rec.record)
	conn := newFakeConn()
	require.NoError(t, tracker.Attach(conn))
	conn.push(t, "B")

	handler := conn.handlers[EventOnlineUsers]
	tracker.Detach()

	assert.False(t, tracker.Attached())
	assert.False(t, conn.subscribed(EventOnlineUsers))
	assert.Empty(t, tracker.Online())
	assert.Empty(t, rec.last())

	// A snapshot already in flight when the subscription was released
	handler(json.RawMessage(`["B","C"]`))
	assert.Empty(t, tracker.Online())
	assert.Equal(t, 2, rec.count())

	// Detaching twice does nothing
	tracker.Detach()
	assert.Equal(t, 2, rec.count())
}

func TestAttachUnavailableKeepsOnlineSet(t *testing.T) {
	tracker := NewTracker("A", nil)
	conn := newFakeConn()
	require.NoError(t, tracker.Attach(conn))
	conn.push(t, "B")

	err := tracker.Attach(nil)
	assert.ErrorIs(t, err, ErrPresenceUnavailable)

	disconnected := newFakeConn()
	disconnected.connected = false
	err = tracker.Attach(disconnected)
	assert.ErrorIs(t, err, ErrPresenceUnavailable)
	assert.Empty(t, disconnected.emits)

	assert.Equal(t, []string{"B"}, tracker.Online().IDs())
}

func TestAttachReplacesPreviousConnection(t *testing.T) {
	tracker := NewTracker("A", nil)
	first := newFakeConn()
	second := newFakeConn()

	require.NoError(t, tracker.Attach(first))
	stale := first.handlers[EventOnlineUsers]
	first.push(t, "B")

	require.NoError(t, tracker.Attach(second))
	assert.False(t, first.subscribed(EventOnlineUsers))
	assert.Empty(t, tracker.Online())

	stale(json.RawMessage(`["X"]`))
	assert.Empty(t, tracker.Online())

	second.push(t, "C")
	assert.Equal(t, []string{"C"}, tracker.Online().IDs())
}

func TestAttachEmitFailure(t *testing.T) {
	tracker := NewTracker("A", nil)
	conn := newFakeConn()
	conn.emitErr = errors.New("write failed")

	err := tracker.Attach(conn)
	require.Error(t, err)
	assert.False(t, tracker.Attached())
	assert.False(t, conn.subscribed(EventOnlineUsers))
}

func TestWatchReleasesOnCancel(t *testing.T) {
	rec := &recorder{}
	tracker := NewTracker("A", rec.record)
	conn := newFakeConn()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tracker.Watch(ctx, conn) }()

	require.Eventually(t, func() bool { return conn.subscribed(EventOnlineUsers) }, time.Second, 5*time.Millisecond)
	conn.push(t, "B")
	assert.True(t, tracker.Online().Has("B"))

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	assert.False(t, tracker.Attached())
	assert.False(t, conn.subscribed(EventOnlineUsers))
	assert.Empty(t, tracker.Online())
}

func TestWatchReleasesOnConnectionClose(t *testing.T) {
	tracker := NewTracker("A", nil)
	conn := newFakeConn()

	errCh := make(chan error, 1)
	go func() { errCh <- tracker.Watch(context.Background(), conn) }()

	require.Eventually(t, func() bool { return conn.subscribed(EventOnlineUsers) }, time.Second, 5*time.Millisecond)
	close(conn.done)

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after close")
	}
	assert.False(t, tracker.Attached())
}

func TestWatchUnavailable(t *testing.T) {
	tracker := NewTracker("A", nil)
	err := tracker.Watch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrPresenceUnavailable)
}

func TestAttachNilSocketUnavailable(t *testing.T) {
	tracker := NewTracker("A", nil)
	var sock *Socket

	assert.NotPanics(t, func() {
		assert.ErrorIs(t, tracker.Attach(sock), ErrPresenceUnavailable)
	})
	assert.False(t, tracker.Attached())
}
