package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/timkeo/timkeo-client/internal/models"
)

// messagesModel is the conversations overview: one row per conversation
// the viewer participates in, with the counterpart, the post, and the
// last message.
type messagesModel struct {
	keys   KeyMap
	styles Styles

	selfID string
	items  []models.ConversationDetails
	cursor int
}

func newMessagesModel(keys KeyMap, styles Styles) messagesModel {
	return messagesModel{keys: keys, styles: styles}
}

func (m *messagesModel) setItems(items []models.ConversationDetails) {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = 0
	}
}

func (m *messagesModel) moveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *messagesModel) moveDown() {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

func (m *messagesModel) selected() *models.ConversationDetails {
	if m.cursor >= len(m.items) {
		return nil
	}
	return &m.items[m.cursor]
}

func (m *messagesModel) view() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Messages") + "\n\n")

	if len(m.items) == 0 {
		b.WriteString(m.styles.Subtle.Render("no conversations yet") + "\n")
	}
	for i, item := range m.items {
		prefix := "  "
		line := m.itemLine(item)
		if i == m.cursor {
			prefix = m.styles.Cursor.Render("> ")
			line = m.styles.Cursor.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}

	b.WriteString("\n" + m.styles.StatusBar.Render("enter open · esc back · q quit"))
	return b.String()
}

func (m *messagesModel) itemLine(item models.ConversationDetails) string {
	name := "unknown"
	if item.OtherParticipant != nil {
		name = item.OtherParticipant.Name
	}
	line := name
	if item.PostTitle != "" {
		line += m.styles.Subtle.Render(fmt.Sprintf("  [%s] %s", item.PostSport, item.PostTitle))
	}
	if item.IsMatch == models.MatchConfirm {
		line += "  " + m.styles.Badge.Render("matched")
	}
	if item.LastMessage != nil {
		preview := item.LastMessage.Content
		if len(preview) > 40 {
			preview = preview[:40] + "…"
		}
		marker := ""
		if item.LastMessage.SenderID != m.selfID {
			marker = "● "
		}
		line += "\n    " + m.styles.Subtle.Render(marker+preview+"  "+relTime(item.LastMessage.CreatedAt))
	}
	return line
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
