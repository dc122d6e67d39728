package chat

import (
	"sync"
	"time"

	"github.com/timkeo/timkeo-client/internal/models"
)

// Notice is the transient "new message" indicator. Each arrival replaces
// the shown message and resets the clear timer, so the latest message
// always gets the full display interval.
type Notice struct {
	ttl time.Duration

	mu      sync.Mutex
	current *models.Message
	timer   *time.Timer
}

func NewNotice(ttl time.Duration) *Notice {
	return &Notice{ttl: ttl}
}

func (n *Notice) Set(m models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = &m
	if n.timer != nil {
		n.timer.Stop()
	}
	id := m.ID
	n.timer = time.AfterFunc(n.ttl, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		// a newer notice owns the timer now
		if n.current != nil && n.current.ID == id {
			n.current = nil
		}
	})
}

// Current returns the visible notice, nil once expired.
func (n *Notice) Current() *models.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Notice) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.current = nil
}
