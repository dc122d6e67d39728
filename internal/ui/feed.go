package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/timkeo/timkeo-client/internal/feed"
	"github.com/timkeo/timkeo-client/internal/geo"
	"github.com/timkeo/timkeo-client/internal/models"
)

// feedModel renders the post feed with the sport, time-window, and
// favorites filters. Filtering is recomputed from the unfiltered posts
// on every change; no filtered state survives a reload.
type feedModel struct {
	keys   KeyMap
	styles Styles

	posts     []models.Post
	visible   []models.Post
	sports    []string
	sportIdx  int // 0 selects all sports
	window    feed.TimeWindow
	favOnly   bool
	favorites []string

	cursor int
	unread bool
}

func newFeedModel(keys KeyMap, styles Styles) feedModel {
	return feedModel{keys: keys, styles: styles, window: feed.WindowAll}
}

func (m *feedModel) setPosts(posts []models.Post) {
	m.posts = posts
	m.sports = feed.Sports(posts)
	if m.sportIdx > len(m.sports) {
		m.sportIdx = 0
	}
	m.refilter()
}

func (m *feedModel) setFavorites(favorites []string) {
	m.favorites = favorites
	m.refilter()
}

func (m *feedModel) refilter() {
	m.visible = feed.Apply(m.posts, feed.Filter{
		Sport:         m.selectedSport(),
		Window:        m.window,
		FavoritesOnly: m.favOnly,
	}, m.favorites, time.Now())
	if m.cursor >= len(m.visible) {
		m.cursor = 0
	}
}

func (m *feedModel) selectedSport() string {
	if m.sportIdx == 0 {
		return feed.SportAll
	}
	return m.sports[m.sportIdx-1]
}

func (m *feedModel) moveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *feedModel) moveDown() {
	if m.cursor < len(m.visible)-1 {
		m.cursor++
	}
}

func (m *feedModel) cycleSport() {
	m.sportIdx = (m.sportIdx + 1) % (len(m.sports) + 1)
	m.refilter()
}

func (m *feedModel) cycleWindow() {
	switch m.window {
	case feed.WindowAll:
		m.window = feed.WindowToday
	case feed.WindowToday:
		m.window = feed.WindowNext3Day
	default:
		m.window = feed.WindowAll
	}
	m.refilter()
}

func (m *feedModel) toggleFavoritesOnly() {
	m.favOnly = !m.favOnly
	m.refilter()
}

func (m *feedModel) selected() *models.Post {
	if m.cursor >= len(m.visible) {
		return nil
	}
	return &m.visible[m.cursor]
}

func (m *feedModel) isFavorite(sport string) bool {
	for _, s := range m.favorites {
		if s == sport {
			return true
		}
	}
	return false
}

func (m *feedModel) view() string {
	var b strings.Builder

	header := m.styles.Title.Render("TimKeo")
	if m.unread {
		header += " " + m.styles.Badge.Render("● new messages")
	}
	b.WriteString(header + "\n")
	b.WriteString(m.styles.Subtle.Render(m.filterLine()) + "\n\n")

	if len(m.visible) == 0 {
		b.WriteString(m.styles.Subtle.Render("no posts match the current filters") + "\n")
	}
	for i, p := range m.visible {
		prefix := "  "
		line := m.postLine(p)
		if i == m.cursor {
			prefix = m.styles.Cursor.Render("> ")
			line = m.styles.Cursor.Render(line)
		} else if m.isFavorite(p.Sport) {
			line = m.styles.Favorite.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}

	b.WriteString("\n" + m.styles.StatusBar.Render(
		"enter open · s sport · t time · f favorites · m messages · n new post · p profile · r refresh · q quit"))
	return b.String()
}

func (m *feedModel) filterLine() string {
	parts := []string{
		"sport: " + m.selectedSport(),
		"when: " + string(m.window),
	}
	if m.favOnly {
		parts = append(parts, "favorites only")
	}
	return strings.Join(parts, "  ·  ")
}

func (m *feedModel) postLine(p models.Post) string {
	line := fmt.Sprintf("[%s] %s", p.Sport, p.Title)
	if !p.StartTime.IsZero() {
		line += m.styles.Subtle.Render("  " + p.StartTime.Local().Format("Mon 02 Jan 15:04"))
	}
	if p.MatchID != "" {
		line += "  " + m.styles.Badge.Render("matched")
	} else if p.Inactive() {
		line += "  " + m.styles.Subtle.Render("inactive")
	}
	if ll, ok := geo.FromLocation(p.Location); ok {
		line += m.styles.Subtle.Render(fmt.Sprintf("  (%.4f, %.4f)", ll.Lat, ll.Lng))
	}
	return line
}
