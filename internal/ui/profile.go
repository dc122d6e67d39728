package ui

import (
	"strings"

	"github.com/timkeo/timkeo-client/internal/models"
)

// knownSports is the selectable catalogue, matching the backend's post
// categories. Sports seen in the feed but missing here are appended at
// load time.
var knownSports = []string{
	"soccer", "tennis", "badminton", "basketball", "volleyball",
	"table-tennis", "running", "swimming",
}

// profileModel is the favorite-sports selector. It doubles as the
// first-run onboarding screen; saving completes onboarding.
type profileModel struct {
	keys   KeyMap
	styles Styles

	user       *models.User
	sports     []string
	selected   map[string]bool
	cursor     int
	onboarding bool
}

func newProfileModel(keys KeyMap, styles Styles) profileModel {
	return profileModel{keys: keys, styles: styles, selected: make(map[string]bool)}
}

func (m *profileModel) load(user *models.User, feedSports []string, onboarding bool) {
	m.user = user
	m.onboarding = onboarding
	m.sports = append([]string(nil), knownSports...)
	for _, s := range feedSports {
		if !contains(m.sports, s) {
			m.sports = append(m.sports, s)
		}
	}
	m.selected = make(map[string]bool)
	if user != nil {
		for _, s := range user.FavoriteSports {
			m.selected[s] = true
		}
	}
	m.cursor = 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *profileModel) moveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *profileModel) moveDown() {
	if m.cursor < len(m.sports)-1 {
		m.cursor++
	}
}

func (m *profileModel) toggle() {
	s := m.sports[m.cursor]
	m.selected[s] = !m.selected[s]
}

func (m *profileModel) favorites() []string {
	var out []string
	for _, s := range m.sports {
		if m.selected[s] {
			out = append(out, s)
		}
	}
	return out
}

func (m *profileModel) view() string {
	var b strings.Builder
	title := "Profile"
	if m.onboarding {
		title = "Welcome! Pick your sports"
	}
	b.WriteString(m.styles.Title.Render(title) + "\n")
	if m.user != nil {
		b.WriteString(m.styles.Subtle.Render(m.user.Name+" · "+m.user.Email) + "\n")
	}
	b.WriteString("\n")

	for i, s := range m.sports {
		mark := "[ ]"
		if m.selected[s] {
			mark = m.styles.Favorite.Render("[★]")
		}
		line := mark + " " + s
		prefix := "  "
		if i == m.cursor {
			prefix = m.styles.Cursor.Render("> ")
			line = m.styles.Cursor.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}

	b.WriteString("\n" + m.styles.StatusBar.Render("enter toggle · w save · x sign out · esc back"))
	return b.String()
}
