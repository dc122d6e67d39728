package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/timkeo/timkeo-client/internal/logger"
	"github.com/timkeo/timkeo-client/internal/models"
)

var upgrader = websocket.Upgrader{}

// wsServer is a minimal peer: it records inbound frames and lets the
// test push event frames down to the client.
type wsServer struct {
	srv *httptest.Server

	mu        sync.Mutex
	conns     []*websocket.Conn
	inbound   []outbound
	connected chan struct{}
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{connected: make(chan struct{}, 16)}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		s.connected <- struct{}{}
		for {
			var frame outbound
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			s.mu.Lock()
			s.inbound = append(s.inbound, frame)
			s.mu.Unlock()
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) push(t *testing.T, event string, data interface{}) {
	t.Helper()
	s.mu.Lock()
	conn := s.conns[len(s.conns)-1]
	s.mu.Unlock()
	require.NoError(t, conn.WriteJSON(outbound{Event: event, Data: data}))
}

func (s *wsServer) frames() []outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]outbound, len(s.inbound))
	copy(out, s.inbound)
	return out
}

func (s *wsServer) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func testConfig(url string) Config {
	return Config{
		URL:            url,
		PingInterval:   time.Second,
		WriteDeadline:  time.Second,
		MaxMessageSize: 65536,
	}
}

func TestDialJoinsRooms(t *testing.T) {
	srv := newWSServer(t)
	ch, err := Dial(testConfig(srv.url()), "alice", "conv-1", Handlers{}, logger.Nop())
	require.NoError(t, err)
	defer ch.Close()

	require.Eventually(t, func() bool { return len(srv.frames()) >= 2 },
		2*time.Second, 10*time.Millisecond)

	frames := srv.frames()
	require.Equal(t, emitJoinUser, frames[0].Event)
	require.Equal(t, emitJoinConversation, frames[1].Event)
}

func TestInboundEventsReachHandlers(t *testing.T) {
	srv := newWSServer(t)

	var mu sync.Mutex
	var msgs []models.Message
	var convs []models.Conversation
	handlers := Handlers{
		OnMessage: func(m models.Message) {
			mu.Lock()
			msgs = append(msgs, m)
			mu.Unlock()
		},
		OnConversation: func(c models.Conversation) {
			mu.Lock()
			convs = append(convs, c)
			mu.Unlock()
		},
	}
	ch, err := Dial(testConfig(srv.url()), "alice", "conv-1", handlers, logger.Nop())
	require.NoError(t, err)
	defer ch.Close()

	srv.push(t, EventNewMessage, models.Message{ID: "m1", ConversationID: "conv-1", SenderID: "bob", Content: "hi"})
	srv.push(t, EventConversationUpdated, models.Conversation{ID: "conv-1", IsMatch: models.MatchWaiting, WaitingBy: "bob"})
	srv.push(t, "unknown_event", map[string]string{"x": "y"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(msgs) == 1 && len(convs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "hi", msgs[0].Content)
	require.Equal(t, models.MatchWaiting, convs[0].IsMatch)
}

func TestSendMessageReachesServer(t *testing.T) {
	srv := newWSServer(t)
	ch, err := Dial(testConfig(srv.url()), "alice", "conv-1", Handlers{}, logger.Nop())
	require.NoError(t, err)
	defer ch.Close()

	ch.SendMessage("alice", "hello there")

	require.Eventually(t, func() bool {
		for _, f := range srv.frames() {
			if f.Event == emitSendMessage {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReconnectRejoinsRooms(t *testing.T) {
	srv := newWSServer(t)
	ch, err := Dial(testConfig(srv.url()), "alice", "conv-1", Handlers{}, logger.Nop())
	require.NoError(t, err)
	defer ch.Close()

	<-srv.connected
	srv.dropConnections()

	// a second accepted connection means the channel redialed and
	// re-sent the join frames
	select {
	case <-srv.connected:
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not reconnect")
	}
	require.Eventually(t, func() bool { return len(srv.frames()) >= 4 },
		2*time.Second, 10*time.Millisecond)
}

func TestCloseStopsDelivery(t *testing.T) {
	srv := newWSServer(t)

	var mu sync.Mutex
	delivered := 0
	handlers := Handlers{OnMessage: func(models.Message) {
		mu.Lock()
		delivered++
		mu.Unlock()
	}}
	ch, err := Dial(testConfig(srv.url()), "alice", "conv-1", handlers, logger.Nop())
	require.NoError(t, err)

	ch.Close()

	// frames pushed after Close must never reach the handler
	s := srv
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns...)
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.WriteJSON(outbound{Event: EventNewMessage, Data: models.Message{ID: "late"}})
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Zero(t, delivered)

	ch.Close() // idempotent
}
