package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/detective-api/internal/config"
)

// memoryBus - PubSubProvider в памяти, общий для нескольких хабов
type memoryBus struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newMemoryBus() *memoryBus {
	return &memoryBus{subs: make(map[string][]chan []byte)}
}

func (b *memoryBus) Publish(channel string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		ch <- message
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan []byte, 16)
	b.subs[channel] = append(b.subs[channel], ch)
	return ch, nil
}

func (b *memoryBus) Close() error { return nil }

func newTestHub(t *testing.T, provider PubSubProvider) *Hub {
	t.Helper()
	h := NewHub(config.WebSocketConfig{}, provider)
	require.NoError(t, h.Run())
	t.Cleanup(h.Stop)
	return h
}

// registerDetached регистрирует клиента без сетевого соединения
func registerDetached(t *testing.T, h *Hub, userID, role string) *Client {
	t.Helper()
	c := NewClient(h, nil, userID, role, DefaultClientConfig())
	require.True(t, h.Register(c))
	return c
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no message for user %s", c.UserID)
		return Event{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message for user %s: %s", c.UserID, msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SendToUsers(t *testing.T) {
	h := newTestHub(t, nil)
	alice := registerDetached(t, h, "1", "client")
	bob := registerDetached(t, h, "2", "culprit")

	require.NoError(t, h.SendJSONToUsers([]string{"1"}, Event{Type: CASE_UPDATED}))

	assert.Equal(t, CASE_UPDATED, receive(t, alice).Type)
	assertSilent(t, bob)
}

func TestHub_SendToRole(t *testing.T) {
	h := newTestHub(t, nil)
	police1 := registerDetached(t, h, "3", "police")
	police2 := registerDetached(t, h, "4", "police")
	detective := registerDetached(t, h, "5", "detective")

	require.NoError(t, h.SendJSONToRole("police", Event{Type: CASE_AVAILABLE}))

	assert.Equal(t, CASE_AVAILABLE, receive(t, police1).Type)
	assert.Equal(t, CASE_AVAILABLE, receive(t, police2).Type)
	assertSilent(t, detective)
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	h := newTestHub(t, nil)
	c := registerDetached(t, h, "1", "client")
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Unregister(c)

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.sendClosed.Load())
}

func TestHub_ClusterFanOut(t *testing.T) {
	bus := newMemoryBus()
	h1 := newTestHub(t, bus)
	h2 := newTestHub(t, bus)
	local := registerDetached(t, h1, "7", "detective")
	remote := registerDetached(t, h2, "7", "detective")

	require.NoError(t, h1.SendJSONToUsers([]string{"7"}, Event{Type: CASE_UPDATED}))

	assert.Equal(t, CASE_UPDATED, receive(t, local).Type)
	assert.Equal(t, CASE_UPDATED, receive(t, remote).Type)
	// собственное сообщение из шины не доставляется повторно
	assertSilent(t, local)
}

func TestHub_OverWebSocket(t *testing.T) {
	h := newTestHub(t, nil)
	manager := NewManager(h)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(h, conn, "42", "detective", DefaultClientConfig()).StartPumps(manager.HandleMessage)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": CLIENT_PING}))
	var ev Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, SERVER_PONG, ev.Type)
}
