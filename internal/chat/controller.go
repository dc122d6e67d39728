// Package chat composes the REST client, the realtime channel, and the
// match-negotiation machine behind one conversation screen.
package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/timkeo/timkeo-client/internal/api"
	"github.com/timkeo/timkeo-client/internal/apperrors"
	"github.com/timkeo/timkeo-client/internal/match"
	"github.com/timkeo/timkeo-client/internal/models"
	"github.com/timkeo/timkeo-client/internal/realtime"
)

// Backend is the REST surface the controller drives. *api.Client
// satisfies it; tests substitute a fake.
type Backend interface {
	match.ConversationAPI
	match.RatingAPI
	CreateConversation(ctx context.Context, nc api.NewConversation) (*models.Conversation, error)
	ConversationsByPost(ctx context.Context, postID string) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Sender emits outgoing chat messages; *realtime.Channel satisfies it.
type Sender interface {
	SendMessage(senderID, content string)
	Close()
}

type Config struct {
	NoticeTTL     time.Duration
	SendPerMinute int
	SendBurst     int
}

// Controller owns the state of one open chat screen. Event callbacks
// and UI calls funnel through its mutex; the server record stays
// authoritative throughout.
type Controller struct {
	backend Backend
	machine *match.Machine
	gate    *match.RatingGate
	notice  *Notice
	limiter *rate.Limiter
	log     *zap.SugaredLogger

	selfID string
	postID string

	mu           sync.Mutex
	post         match.PostStatus
	messages     []models.Message
	other        *models.UserSummary
	prompt       *match.Eligibility // non-nil once a conclusion was reached
	sender       Sender
	closed       bool
	onUpdateHook func() // UI redraw trigger, optional
}

func NewController(backend Backend, gate *match.RatingGate, selfID, postID string, cfg Config, log *zap.SugaredLogger) *Controller {
	return &Controller{
		backend: backend,
		machine: match.NewMachine(backend, selfID, log),
		gate:    gate,
		notice:  NewNotice(cfg.NoticeTTL),
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.SendPerMinute)/60.0), cfg.SendBurst),
		log:     log,
		selfID:  selfID,
		postID:  postID,
	}
}

// OnUpdate registers a callback fired after any state change caused by
// an inbound event. It runs on the realtime goroutine.
func (c *Controller) OnUpdate(fn func()) {
	c.mu.Lock()
	c.onUpdateHook = fn
	c.mu.Unlock()
}

// Bootstrap loads the post guard state, finds or creates the viewer's
// conversation for the post (at most one per (post, pair), the server
// guarantees idempotency), loads the message history, and enriches the
// counterpart profile best-effort.
func (c *Controller) Bootstrap(ctx context.Context, conversationID string) (*models.Conversation, error) {
	c.refreshPost(ctx)

	var conv *models.Conversation
	var err error
	if conversationID != "" {
		conv, err = c.backend.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
	} else {
		conv, err = c.findOrCreate(ctx)
		if err != nil {
			return nil, err
		}
	}
	c.machine.Apply(*conv)

	msgs, err := c.backend.ListMessages(ctx, conv.ID)
	if err != nil {
		// degrade to an empty history, the channel will fill in new traffic
		c.log.Errorw("chat: history load failed", "conversation", conv.ID, "err", err)
		msgs = nil
	}
	c.mu.Lock()
	c.messages = msgs
	c.mu.Unlock()

	c.loadOtherParticipant(ctx, conv)

	// already-confirmed conversations prompt on mount
	if conv.IsMatch == models.MatchConfirm {
		c.evaluateRating(ctx)
	}
	return conv, nil
}

func (c *Controller) findOrCreate(ctx context.Context) (*models.Conversation, error) {
	convs, err := c.backend.ConversationsByPost(ctx, c.postID)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].HasParticipant(c.selfID) {
			return &convs[i], nil
		}
	}
	// the server adds the post owner as the second participant
	return c.backend.CreateConversation(ctx, api.NewConversation{
		PostID:       c.postID,
		Participants: []string{c.selfID},
		IsMatch:      models.MatchNone,
	})
}

func (c *Controller) loadOtherParticipant(ctx context.Context, conv *models.Conversation) {
	otherID := conv.OtherParticipant(c.selfID)
	if otherID == "" {
		return
	}
	u, err := c.backend.GetUser(ctx, otherID)
	if err != nil {
		// enrichment only, never blocks the chat
		c.log.Warnw("chat: counterpart lookup failed", "user", otherID, "err", err)
		return
	}
	c.mu.Lock()
	c.other = &models.UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	c.mu.Unlock()
}

// Attach wires the realtime channel into the controller. Kept separate
// from Bootstrap so tests can drive the handlers directly.
func (c *Controller) Attach(sender Sender) realtime.Handlers {
	c.mu.Lock()
	c.sender = sender
	c.mu.Unlock()
	return realtime.Handlers{
		OnMessage:      c.handleMessage,
		OnConversation: c.handleConversationUpdate,
	}
}

func (c *Controller) handleMessage(m models.Message) {
	c.mu.Lock()
	merged := Merge(c.messages, m)
	grew := len(merged) > len(c.messages)
	c.messages = merged
	c.mu.Unlock()
	// a redelivered id must not re-raise the notice for a message the
	// viewer already saw
	if grew && m.SenderID != c.selfID {
		c.notice.Set(m)
	}
	c.fireUpdate()
}

// handleConversationUpdate treats the inbound record as authoritative:
// post guard state is refreshed first so the confirm control deadens
// immediately if the post was matched elsewhere, then the record is
// offered to the freshness-gated reducer.
func (c *Controller) handleConversationUpdate(conv models.Conversation) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.refreshPost(ctx)

	held, ok := c.machine.Current()
	if !ok || conv.ID != held.ID {
		c.fireUpdate()
		return
	}
	if c.machine.Apply(conv) && conv.IsMatch == models.MatchConfirm {
		c.evaluateRating(ctx)
	}
	c.fireUpdate()
}

func (c *Controller) refreshPost(ctx context.Context) {
	post, err := c.backend.GetPost(ctx, c.postID)
	if err != nil {
		// non-fatal: keep the previous guard state
		c.log.Warnw("chat: post refresh failed", "post", c.postID, "err", err)
		return
	}
	c.mu.Lock()
	c.post = match.PostStatus{MatchID: post.MatchID, Inactive: post.Inactive(), OwnerID: post.Owner.ID}
	c.mu.Unlock()
}

// evaluateRating reaches a shown/suppressed conclusion at most once per
// match, no matter how many confirm observations trigger it.
func (c *Controller) evaluateRating(ctx context.Context) {
	c.mu.Lock()
	if c.prompt != nil {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	e := c.gate.Evaluate(ctx, c.postID, c.selfID)
	if e.MatchID == "" {
		// no match id yet: leave undecided so a later observation retries
		return
	}
	c.mu.Lock()
	if c.prompt == nil {
		c.prompt = &e
	}
	c.mu.Unlock()
}

// Send emits a message over the channel, throttled client-side.
func (c *Controller) Send(content string) error {
	if content == "" {
		return nil
	}
	c.mu.Lock()
	sender := c.sender
	c.mu.Unlock()
	if sender == nil {
		return apperrors.ErrServiceUnavailable
	}
	if !c.limiter.Allow() {
		return apperrors.ErrRateLimited
	}
	sender.SendMessage(c.selfID, content)
	return nil
}

// Propose, Confirm, and Cancel drive the handshake. Confirm evaluates
// rating eligibility on success.
func (c *Controller) Propose(ctx context.Context) error {
	_, err := c.machine.Propose(ctx, c.postStatus())
	return err
}

func (c *Controller) Confirm(ctx context.Context) error {
	conv, err := c.machine.Confirm(ctx, c.postStatus())
	if err != nil {
		return err
	}
	c.refreshPost(ctx)
	if conv.IsMatch == models.MatchConfirm {
		c.evaluateRating(ctx)
	}
	return nil
}

func (c *Controller) Cancel(ctx context.Context) error {
	_, err := c.machine.Cancel(ctx)
	return err
}

// Snapshot is the render state for the chat view.
type Snapshot struct {
	Conversation models.Conversation
	Messages     []models.Message
	Control      match.Control
	Notice       *models.Message
	Other        *models.UserSummary
	RatingPrompt *match.Eligibility
}

func (c *Controller) Snapshot() Snapshot {
	conv, _ := c.machine.Current()
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]models.Message, len(c.messages))
	copy(msgs, c.messages)
	var prompt *match.Eligibility
	if c.prompt != nil && c.prompt.Show {
		p := *c.prompt
		prompt = &p
	}
	return Snapshot{
		Conversation: conv,
		Messages:     msgs,
		Control:      match.Decide(conv, c.post, c.selfID),
		Notice:       c.notice.Current(),
		Other:        c.other,
		RatingPrompt: prompt,
	}
}

// ResolvePrompt marks the surfaced prompt as handled (submitted or
// dismissed); the durable flag is the gate's job.
func (c *Controller) ResolvePrompt() {
	c.mu.Lock()
	if c.prompt != nil {
		c.prompt.Show = false
	}
	c.mu.Unlock()
}

func (c *Controller) postStatus() match.PostStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.post
}

func (c *Controller) fireUpdate() {
	c.mu.Lock()
	hook := c.onUpdateHook
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Close releases the realtime subscription synchronously; no handler
// runs after it returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sender := c.sender
	c.mu.Unlock()

	c.notice.Stop()
	if sender != nil {
		sender.Close()
	}
}
