// Package match implements the client side of the match-confirmation
// handshake: a three-state negotiation (no → waiting → confirm) over a
// server-owned conversation record. The client validates which transition
// is legal for the current user, issues the patch, and treats every
// inbound record as potentially superseding its own copy.
package match

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/timkeo/timkeo-client/internal/api"
	"github.com/timkeo/timkeo-client/internal/apperrors"
	"github.com/timkeo/timkeo-client/internal/models"
)

// PostStatus is the slice of the hosting post the guards need.
type PostStatus struct {
	MatchID  string
	Inactive bool
	OwnerID  string
}

// Closed reports whether the post accepts no further negotiation from
// this viewer: the slot was filled by some conversation, or the post
// went inactive and the viewer is not its owner.
func (p PostStatus) Closed(selfID string) bool {
	if p.MatchID != "" {
		return true
	}
	return p.Inactive && selfID != p.OwnerID
}

// Control is the derived state of the negotiation button pair. It is a
// pure function of the conversation record, the post status, and the
// viewer, never of any locally cached intention.
type Control struct {
	Label         string
	Enabled       bool
	CancelEnabled bool
}

const (
	LabelPropose  = "propose"
	LabelAwaiting = "awaiting"
	LabelConfirm  = "confirm"
	LabelMatched  = "matched"
)

// Decide derives the control state for the viewer.
func Decide(conv models.Conversation, post PostStatus, selfID string) Control {
	switch conv.IsMatch {
	case models.MatchWaiting:
		if conv.WaitingBy == selfID {
			// self cannot confirm its own proposal
			return Control{Label: LabelAwaiting, Enabled: false, CancelEnabled: true}
		}
		return Control{Label: LabelConfirm, Enabled: !post.Closed(selfID), CancelEnabled: true}
	case models.MatchConfirm:
		return Control{Label: LabelMatched, Enabled: false, CancelEnabled: false}
	default:
		return Control{Label: LabelPropose, Enabled: !post.Closed(selfID), CancelEnabled: false}
	}
}

// ConversationAPI is the slice of the REST client the machine drives.
type ConversationAPI interface {
	UpdateConversation(ctx context.Context, id string, patch api.ConversationPatch) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
}

// Machine wraps one conversation record with the freshness-gated
// reducer and the transition entry points. All methods are safe for the
// UI goroutine and the realtime callback goroutine.
type Machine struct {
	api    ConversationAPI
	selfID string
	log    *zap.SugaredLogger

	mu   sync.RWMutex
	conv models.Conversation
	has  bool
}

func NewMachine(a ConversationAPI, selfID string, log *zap.SugaredLogger) *Machine {
	return &Machine{api: a, selfID: selfID, log: log}
}

// Current returns the held record; ok is false before the first Apply.
func (m *Machine) Current() (models.Conversation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conv, m.has
}

// Apply offers a whole-record replacement. Records older than the held
// one (by server updatedAt) are discarded, which makes convergence
// independent of REST/notification interleaving. Equal timestamps are
// accepted so records without server clock progression still land.
func (m *Machine) Apply(conv models.Conversation) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.has && conv.ID != m.conv.ID {
		return false
	}
	if m.has && conv.UpdatedAt.Before(m.conv.UpdatedAt) {
		m.log.Debugw("match: discarding stale record",
			"held", m.conv.UpdatedAt, "offered", conv.UpdatedAt)
		return false
	}
	m.conv = conv
	m.has = true
	return true
}

// Control derives the button state for the held record.
func (m *Machine) Control(post PostStatus) Control {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Decide(m.conv, post, m.selfID)
}

// Propose requests no → waiting with the viewer as proposer.
func (m *Machine) Propose(ctx context.Context, post PostStatus) (models.Conversation, error) {
	conv, ok := m.Current()
	if !ok {
		return models.Conversation{}, apperrors.ErrBadTransition
	}
	if conv.IsMatch != models.MatchNone {
		return conv, apperrors.ErrBadTransition
	}
	if post.Closed(m.selfID) {
		return conv, apperrors.ErrPostClosed
	}
	waitingBy := m.selfID
	return m.patch(ctx, api.ConversationPatch{IsMatch: models.MatchWaiting, WaitingBy: &waitingBy})
}

// Confirm requests waiting → confirm. Only the counterpart of the
// proposer may confirm.
func (m *Machine) Confirm(ctx context.Context, post PostStatus) (models.Conversation, error) {
	conv, ok := m.Current()
	if !ok {
		return models.Conversation{}, apperrors.ErrBadTransition
	}
	if conv.IsMatch != models.MatchWaiting || conv.WaitingBy == m.selfID {
		return conv, apperrors.ErrBadTransition
	}
	if post.Closed(m.selfID) {
		return conv, apperrors.ErrPostClosed
	}
	return m.patch(ctx, api.ConversationPatch{IsMatch: models.MatchConfirm})
}

// Cancel requests waiting → no. Either participant may cancel.
func (m *Machine) Cancel(ctx context.Context) (models.Conversation, error) {
	conv, ok := m.Current()
	if !ok {
		return models.Conversation{}, apperrors.ErrBadTransition
	}
	if conv.IsMatch != models.MatchWaiting {
		return conv, apperrors.ErrBadTransition
	}
	return m.patch(ctx, api.ConversationPatch{IsMatch: models.MatchNone, WaitingBy: nil})
}

// patch issues the transition request. On a business-rule rejection the
// server record superseded us (matched elsewhere, cancelled by the
// counterpart); re-fetch the authoritative record instead of assuming
// the request took effect.
func (m *Machine) patch(ctx context.Context, p api.ConversationPatch) (models.Conversation, error) {
	conv, _ := m.Current()
	updated, err := m.api.UpdateConversation(ctx, conv.ID, p)
	if err != nil {
		if errors.Is(err, apperrors.ErrPostClosed) || errors.Is(err, apperrors.ErrBadRequest) {
			m.recover(ctx, conv.ID)
		}
		held, _ := m.Current()
		return held, err
	}
	m.Apply(*updated)
	held, _ := m.Current()
	return held, nil
}

func (m *Machine) recover(ctx context.Context, id string) {
	fresh, err := m.api.GetConversation(ctx, id)
	if err != nil {
		m.log.Warnw("match: recovery fetch failed", "conversation", id, "err", err)
		return
	}
	m.Apply(*fresh)
}
