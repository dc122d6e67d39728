package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timkeo/timkeo-client/internal/models"
)

const startTimeLayout = "2006-01-02 15:04"

// composeModel is the create-post form: sport, title, content, start
// time, and duration. Tab moves between fields, enter on the last field
// submits.
type composeModel struct {
	keys   KeyMap
	styles Styles

	inputs []textinput.Model
	focus  int
	err    string
}

const (
	fieldSport = iota
	fieldTitle
	fieldContent
	fieldStart
	fieldHours
	fieldCount
)

func newComposeModel(keys KeyMap, styles Styles) composeModel {
	labels := [fieldCount]string{"sport", "title", "details", startTimeLayout, "duration hours"}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = labels[i]
		in.CharLimit = 200
		inputs[i] = in
	}
	inputs[fieldStart].SetValue(time.Now().Add(24 * time.Hour).Format(startTimeLayout))
	inputs[fieldHours].SetValue("2")
	inputs[fieldSport].Focus()
	return composeModel{keys: keys, styles: styles, inputs: inputs}
}

// handleKey consumes one keystroke. A non-nil post means the form was
// submitted and validated.
func (m *composeModel) handleKey(msg tea.KeyMsg) (post *models.NewPost, closeScreen bool, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return nil, true, nil
	case tea.KeyTab, tea.KeyDown:
		m.setFocus((m.focus + 1) % fieldCount)
		return nil, false, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return nil, false, nil
	case tea.KeyEnter:
		if m.focus < fieldCount-1 {
			m.setFocus(m.focus + 1)
			return nil, false, nil
		}
		return m.build(), false, nil
	}

	var c tea.Cmd
	m.inputs[m.focus], c = m.inputs[m.focus].Update(msg)
	return nil, false, c
}

func (m *composeModel) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m *composeModel) build() *models.NewPost {
	sport := strings.TrimSpace(m.inputs[fieldSport].Value())
	title := strings.TrimSpace(m.inputs[fieldTitle].Value())
	if sport == "" || title == "" {
		m.err = "sport and title are required"
		return nil
	}
	start, err := time.ParseInLocation(startTimeLayout, strings.TrimSpace(m.inputs[fieldStart].Value()), time.Local)
	if err != nil {
		m.err = "start time must look like " + startTimeLayout
		return nil
	}
	hours, err := time.ParseDuration(strings.TrimSpace(m.inputs[fieldHours].Value()) + "h")
	if err != nil || hours <= 0 {
		m.err = "duration must be a positive number of hours"
		return nil
	}
	m.err = ""
	return &models.NewPost{
		Sport:     sport,
		Title:     title,
		Content:   strings.TrimSpace(m.inputs[fieldContent].Value()),
		StartTime: start,
		EndTime:   start.Add(hours),
	}
}

func (m *composeModel) view() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("New post") + "\n\n")
	labels := [fieldCount]string{"Sport", "Title", "Details", "Starts", "Hours"}
	for i, in := range m.inputs {
		label := labels[i]
		if i == m.focus {
			label = m.styles.Cursor.Render(label)
		}
		b.WriteString(label + "\n" + in.View() + "\n\n")
	}
	if m.err != "" {
		b.WriteString(m.styles.Error.Render(m.err) + "\n")
	}
	b.WriteString(m.styles.StatusBar.Render("tab next field · enter submit · esc back"))
	return b.String()
}
