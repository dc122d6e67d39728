// Package realtime maintains the persistent event channel behind an open
// chat screen. It delivers new_message and conversation_updated events,
// scoped by joining a per-user room and a per-conversation room, and
// reconnects with backoff until closed.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/timkeo/timkeo-client/internal/models"
)

const (
	EventNewMessage          = "new_message"
	EventConversationUpdated = "conversation_updated"

	emitJoinUser         = "join_user"
	emitJoinConversation = "join_conversation"
	emitSendMessage      = "send_message"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Handlers receive inbound events. They run on the channel's read
// goroutine; none are invoked after Close returns.
type Handlers struct {
	OnMessage      func(models.Message)
	OnConversation func(models.Conversation)
}

type Config struct {
	URL            string
	PingInterval   time.Duration
	WriteDeadline  time.Duration
	MaxMessageSize int64
}

type Channel struct {
	cfg      Config
	log      *zap.SugaredLogger
	handlers Handlers

	userID         string
	conversationID string

	send chan outbound
	done chan struct{}

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	wg sync.WaitGroup
}

// Dial connects, joins the user and conversation rooms, and starts the
// pumps. The returned channel keeps itself connected until Close.
func Dial(cfg Config, userID, conversationID string, handlers Handlers, log *zap.SugaredLogger) (*Channel, error) {
	c := &Channel{
		cfg:            cfg,
		log:            log,
		handlers:       handlers,
		userID:         userID,
		conversationID: conversationID,
		send:           make(chan outbound, 64),
		done:           make(chan struct{}),
	}
	conn, err := c.connect()
	if err != nil {
		return nil, err
	}
	c.conn = conn

	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
	return c, nil
}

func (c *Channel) connect() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * c.cfg.PingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * c.cfg.PingInterval))
	})

	// join the personal room first so notifications arrive even for
	// updates raised outside this conversation
	joins := []outbound{
		{Event: emitJoinUser, Data: map[string]string{"userId": c.userID}},
		{Event: emitJoinConversation, Data: map[string]string{"conversationId": c.conversationID}},
	}
	for _, j := range joins {
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteDeadline))
		if err := conn.WriteJSON(j); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// SendMessage emits a chat message over the channel. Delivery and
// persistence are the server's job; the echo comes back as new_message.
func (c *Channel) SendMessage(senderID, content string) {
	msg := outbound{Event: emitSendMessage, Data: map[string]string{
		"conversationId": c.conversationID,
		"senderId":       senderID,
		"content":        content,
	}}
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

// Close releases the subscription synchronously: once it returns no
// handler will run again, even if a frame was already in flight.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Channel) readPump() {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		conn := c.conn
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if !c.reconnect() {
				return
			}
			continue
		}
		c.dispatch(data)
	}
}

// dispatch decodes one frame and hands it to the matching handler. The
// closed check and the handler call share the mutex so Close can cut
// delivery off atomically.
func (c *Channel) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Debugw("realtime: dropping unparsable frame", "err", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	switch env.Event {
	case EventNewMessage:
		if c.handlers.OnMessage == nil {
			return
		}
		var m models.Message
		if err := json.Unmarshal(env.Data, &m); err != nil {
			c.log.Debugw("realtime: bad message payload", "err", err)
			return
		}
		c.handlers.OnMessage(m)
	case EventConversationUpdated:
		if c.handlers.OnConversation == nil {
			return
		}
		var conv models.Conversation
		if err := json.Unmarshal(env.Data, &conv); err != nil {
			c.log.Debugw("realtime: bad conversation payload", "err", err)
			return
		}
		c.handlers.OnConversation(conv)
	}
}

// reconnect redials until it succeeds or the channel is closed. Room
// membership is re-established inside connect.
func (c *Channel) reconnect() bool {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0 // retry until Close
	for {
		select {
		case <-c.done:
			return false
		default:
		}

		conn, err := c.connect()
		if err == nil {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				conn.Close()
				return false
			}
			c.conn = conn
			c.mu.Unlock()
			c.log.Infow("realtime: reconnected", "conversation", c.conversationID)
			return true
		}

		wait := b.NextBackOff()
		c.log.Warnw("realtime: reconnect failed", "err", err, "retry_in", wait)
		select {
		case <-c.done:
			return false
		case <-time.After(wait):
		}
	}
}

func (c *Channel) writePump() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteDeadline))
			if err := conn.WriteJSON(msg); err != nil {
				c.log.Warnw("realtime: write failed", "err", err)
			}
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteDeadline))
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				c.log.Debugw("realtime: ping failed", "err", err)
			}
		}
	}
}
