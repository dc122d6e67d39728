package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timkeo/timkeo-client/internal/chat"
	"github.com/timkeo/timkeo-client/internal/match"
	"github.com/timkeo/timkeo-client/internal/models"
)

const chatOpTimeout = 5 * time.Second

// chatModel renders one open conversation: the message history, the
// composer, the match-negotiation button pair, and the rating modal
// once a confirm concludes eligibility.
type chatModel struct {
	keys   KeyMap
	styles Styles

	selfID string
	ctrl   *chat.Controller
	gate   *match.RatingGate

	input       textinput.Model
	ratingScore int
	status      string
}

func newChatModel(keys KeyMap, styles Styles, selfID string, ctrl *chat.Controller, gate *match.RatingGate) chatModel {
	input := textinput.New()
	input.Placeholder = "type a message"
	input.CharLimit = 500
	input.Focus()
	return chatModel{
		keys:        keys,
		styles:      styles,
		selfID:      selfID,
		ctrl:        ctrl,
		gate:        gate,
		input:       input,
		ratingScore: 5,
	}
}

// handleKey consumes one keystroke. It reports whether the screen wants
// to close (escape outside the rating modal).
func (m *chatModel) handleKey(msg tea.KeyMsg) (closeScreen bool, cmd tea.Cmd) {
	snap := m.ctrl.Snapshot()

	if snap.RatingPrompt != nil {
		m.handleRatingKey(msg, snap)
		return false, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return true, nil
	case key.Matches(msg, m.keys.Action):
		m.runTransition(snap.Control)
		return false, nil
	case key.Matches(msg, m.keys.Cancel):
		m.runCancel(snap.Control)
		return false, nil
	case msg.Type == tea.KeyEnter:
		m.submitMessage()
		return false, nil
	}

	var c tea.Cmd
	m.input, c = m.input.Update(msg)
	return false, c
}

func (m *chatModel) submitMessage() {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return
	}
	if err := m.ctrl.Send(content); err != nil {
		m.status = "send failed: " + err.Error()
		return
	}
	m.status = ""
	m.input.Reset()
}

func (m *chatModel) runTransition(ctrl match.Control) {
	if !ctrl.Enabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), chatOpTimeout)
	defer cancel()

	var err error
	switch ctrl.Label {
	case match.LabelPropose:
		err = m.ctrl.Propose(ctx)
	case match.LabelConfirm:
		err = m.ctrl.Confirm(ctx)
	}
	if err != nil {
		m.status = err.Error()
	} else {
		m.status = ""
	}
}

func (m *chatModel) runCancel(ctrl match.Control) {
	if !ctrl.CancelEnabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), chatOpTimeout)
	defer cancel()
	if err := m.ctrl.Cancel(ctx); err != nil {
		m.status = err.Error()
	}
}

func (m *chatModel) handleRatingKey(msg tea.KeyMsg, snap chat.Snapshot) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.ratingScore < 5 {
			m.ratingScore++
		}
	case key.Matches(msg, m.keys.Down):
		if m.ratingScore > 1 {
			m.ratingScore--
		}
	case msg.Type == tea.KeyEnter:
		m.submitRating(snap)
	case key.Matches(msg, m.keys.Back):
		m.dismissRating(snap)
	}
}

func (m *chatModel) submitRating(snap chat.Snapshot) {
	rateeID := ""
	if snap.Other != nil {
		rateeID = snap.Other.ID
	} else {
		rateeID = snap.Conversation.OtherParticipant(m.selfID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), chatOpTimeout)
	defer cancel()
	err := m.gate.Submit(ctx, models.NewRating{
		MatchID: snap.RatingPrompt.MatchID,
		RaterID: m.selfID,
		RateeID: rateeID,
		Score:   m.ratingScore,
	})
	if err != nil {
		m.status = "rating failed: " + err.Error()
		return
	}
	m.ctrl.ResolvePrompt()
}

func (m *chatModel) dismissRating(snap chat.Snapshot) {
	if err := m.gate.Dismiss(snap.RatingPrompt.MatchID, m.selfID); err != nil {
		m.status = "dismiss failed: " + err.Error()
		return
	}
	m.ctrl.ResolvePrompt()
}

func (m *chatModel) view() string {
	snap := m.ctrl.Snapshot()
	var b strings.Builder

	title := "Chat"
	if snap.Other != nil {
		title = "Chat with " + snap.Other.Name
	}
	b.WriteString(m.styles.Title.Render(title) + "\n")
	b.WriteString(m.controlLine(snap.Control) + "\n\n")

	for _, msg := range snap.Messages {
		b.WriteString(m.messageLine(msg, snap) + "\n")
	}
	if snap.Notice != nil {
		b.WriteString(m.styles.Notice.Render("new message received") + "\n")
	}

	if snap.RatingPrompt != nil {
		b.WriteString("\n" + m.ratingModal(snap) + "\n")
	} else {
		b.WriteString("\n" + m.input.View() + "\n")
		if m.status != "" {
			b.WriteString(m.styles.Error.Render(m.status) + "\n")
		}
		b.WriteString(m.styles.StatusBar.Render("enter send · ctrl+p " + snap.Control.Label + " · ctrl+x cancel · esc back"))
	}
	return b.String()
}

func (m *chatModel) controlLine(ctrl match.Control) string {
	label := map[string]string{
		match.LabelPropose:  "Propose match",
		match.LabelAwaiting: "Waiting for confirmation",
		match.LabelConfirm:  "Confirm match",
		match.LabelMatched:  "Matched",
	}[ctrl.Label]

	style := m.styles.ButtonOff
	if ctrl.Enabled {
		style = m.styles.ButtonOn
	}
	line := style.Render(label)
	if ctrl.CancelEnabled {
		line += "  " + m.styles.ButtonOff.Render("Cancel")
	}
	return line
}

func (m *chatModel) messageLine(msg models.Message, snap chat.Snapshot) string {
	if msg.SenderID == m.selfID {
		return m.styles.OwnMsg.Render("me: " + msg.Content)
	}
	name := msg.SenderID
	if snap.Other != nil && snap.Other.ID == msg.SenderID {
		name = snap.Other.Name
	}
	return m.styles.OtherMsg.Render(name + ": " + msg.Content)
}

func (m *chatModel) ratingModal(snap chat.Snapshot) string {
	name := "your opponent"
	if snap.Other != nil {
		name = snap.Other.Name
	}
	stars := strings.Repeat("★", m.ratingScore) + strings.Repeat("☆", 5-m.ratingScore)
	body := fmt.Sprintf("Rate %s\n\n%s\n\n↑/↓ adjust · enter submit · esc skip", name, stars)
	return m.styles.Modal.Render(body)
}
