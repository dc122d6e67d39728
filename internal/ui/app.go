// Package ui is the terminal front end: a feed screen, a messages
// overview, and the chat screen with the match-negotiation controls.
// One top-level model owns the active screen; the sub-models hold no
// goroutines of their own.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/timkeo/timkeo-client/internal/api"
	"github.com/timkeo/timkeo-client/internal/auth"
	"github.com/timkeo/timkeo-client/internal/chat"
	"github.com/timkeo/timkeo-client/internal/config"
	"github.com/timkeo/timkeo-client/internal/feed"
	"github.com/timkeo/timkeo-client/internal/match"
	"github.com/timkeo/timkeo-client/internal/models"
	"github.com/timkeo/timkeo-client/internal/realtime"
	"github.com/timkeo/timkeo-client/internal/session"
)

type screen int

const (
	screenFeed screen = iota
	screenMessages
	screenChat
	screenProfile
	screenCompose
)

const unreadPollInterval = 30 * time.Second

type (
	feedLoadedMsg  struct{ posts []models.Post }
	unreadMsg      struct{ unread bool }
	convsLoadedMsg struct{ items []models.ConversationDetails }
	chatOpenedMsg  struct{ ctrl *chat.Controller }
	chatRefreshMsg struct{}
	sessionMsg     struct{ err error }
	unreadTickMsg  struct{}
	opErrMsg       struct{ err error }
	profileSaved   struct {
		user *models.User
		err  error
	}
	postCreatedMsg struct{ err error }
)

// App is the root bubbletea model.
type App struct {
	cfg        *config.Config
	client     *api.Client
	session    *session.Store
	onboarding *session.Onboarding
	gate       *match.RatingGate
	login      *auth.Flow
	log        *zap.SugaredLogger

	keys   KeyMap
	styles Styles

	active   screen
	feed     feedModel
	messages messagesModel
	profile  profileModel
	compose  *composeModel
	chat     *chatModel

	// refresh carries redraw pokes from the realtime goroutine into
	// the bubbletea loop; chatDone releases the pending listener when
	// the chat screen closes.
	refresh  chan struct{}
	chatDone chan struct{}

	status string
}

func NewApp(cfg *config.Config, client *api.Client, sess *session.Store, onboarding *session.Onboarding, gate *match.RatingGate, login *auth.Flow, log *zap.SugaredLogger) *App {
	keys := DefaultKeyMap
	styles := DefaultStyles()
	return &App{
		cfg:        cfg,
		client:     client,
		session:    sess,
		onboarding: onboarding,
		gate:       gate,
		login:      login,
		log:        log,
		keys:       keys,
		styles:     styles,
		feed:       newFeedModel(keys, styles),
		messages:   newMessagesModel(keys, styles),
		profile:    newProfileModel(keys, styles),
		refresh:    make(chan struct{}, 8),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadFeed(), a.loadUnread(), a.unreadTick())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case feedLoadedMsg:
		a.feed.setPosts(msg.posts)
		if u := a.session.User(); u != nil {
			a.feed.setFavorites(u.FavoriteSports)
		}
		return a, nil

	case unreadMsg:
		a.feed.unread = msg.unread
		return a, nil

	case unreadTickMsg:
		if a.active == screenFeed && a.session.User() != nil {
			return a, tea.Batch(a.loadUnread(), a.unreadTick())
		}
		return a, a.unreadTick()

	case convsLoadedMsg:
		a.messages.setItems(msg.items)
		return a, nil

	case chatOpenedMsg:
		selfID := ""
		if u := a.session.User(); u != nil {
			selfID = u.ID
		}
		cm := newChatModel(a.keys, a.styles, selfID, msg.ctrl, a.gate)
		a.chat = &cm
		a.chatDone = make(chan struct{})
		a.active = screenChat
		a.status = ""
		return a, a.waitRefresh(a.chatDone)

	case chatRefreshMsg:
		// state already lives in the controller; re-arm the listener
		if a.chatDone == nil {
			return a, nil
		}
		return a, a.waitRefresh(a.chatDone)

	case sessionMsg:
		if msg.err != nil {
			a.status = "sign in failed: " + msg.err.Error()
			return a, nil
		}
		a.status = ""
		// first sign-in routes through sport selection
		if a.session.User() != nil && !a.onboarding.Completed() {
			a.profile.load(a.session.User(), a.feed.sports, true)
			a.active = screenProfile
		}
		return a, tea.Batch(a.loadFeed(), a.loadUnread())

	case profileSaved:
		if msg.err != nil {
			a.status = "save failed: " + msg.err.Error()
			return a, nil
		}
		a.session.Update(msg.user)
		a.feed.setFavorites(msg.user.FavoriteSports)
		if !a.onboarding.Completed() {
			if err := a.onboarding.Complete(); err != nil {
				a.log.Warnw("onboarding flag write failed", "err", err)
			}
		}
		a.active = screenFeed
		a.status = ""
		return a, nil

	case postCreatedMsg:
		if msg.err != nil {
			a.status = "post failed: " + msg.err.Error()
			return a, nil
		}
		a.compose = nil
		a.active = screenFeed
		a.status = ""
		return a, a.loadFeed()

	case opErrMsg:
		a.status = msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.active == screenCompose && a.compose != nil {
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		post, closeScreen, cmd := a.compose.handleKey(msg)
		if closeScreen {
			a.compose = nil
			a.active = screenFeed
			return a, nil
		}
		if post != nil {
			return a, a.createPost(*post)
		}
		return a, cmd
	}

	if a.active == screenProfile {
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Up):
			a.profile.moveUp()
		case key.Matches(msg, a.keys.Down):
			a.profile.moveDown()
		case key.Matches(msg, a.keys.Select):
			a.profile.toggle()
		case key.Matches(msg, a.keys.Save):
			return a, a.saveProfile()
		case key.Matches(msg, a.keys.Logout):
			a.session.Logout()
			a.feed.setFavorites(nil)
			a.feed.unread = false
			a.active = screenFeed
			a.status = "signed out"
			return a, a.loadFeed()
		case key.Matches(msg, a.keys.Back):
			a.active = screenFeed
		}
		return a, nil
	}

	if a.active == screenChat && a.chat != nil {
		if key.Matches(msg, a.keys.Quit) && msg.Type == tea.KeyCtrlC {
			a.closeChat()
			return a, tea.Quit
		}
		closeScreen, cmd := a.chat.handleKey(msg)
		if closeScreen {
			a.closeChat()
			a.active = screenFeed
			return a, tea.Batch(a.loadFeed(), a.loadUnread())
		}
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		if a.active == screenFeed {
			a.feed.moveUp()
		} else {
			a.messages.moveUp()
		}
	case key.Matches(msg, a.keys.Down):
		if a.active == screenFeed {
			a.feed.moveDown()
		} else {
			a.messages.moveDown()
		}
	case key.Matches(msg, a.keys.Select):
		return a.openSelection()
	case key.Matches(msg, a.keys.Back):
		a.active = screenFeed
		return a, a.loadFeed()
	case key.Matches(msg, a.keys.Refresh):
		if a.active == screenMessages {
			return a, a.loadConversations()
		}
		return a, tea.Batch(a.loadFeed(), a.loadUnread())
	case key.Matches(msg, a.keys.Messages):
		if a.session.User() == nil {
			a.status = "sign in to see your messages"
			return a, nil
		}
		a.active = screenMessages
		a.messages.selfID = a.session.User().ID
		return a, a.loadConversations()
	case key.Matches(msg, a.keys.Login):
		if a.session.User() == nil {
			return a, a.runLogin()
		}
	case key.Matches(msg, a.keys.Profile):
		if a.session.User() == nil {
			a.status = "sign in to edit your profile"
			return a, nil
		}
		a.profile.load(a.session.User(), a.feed.sports, !a.onboarding.Completed())
		a.active = screenProfile
	case key.Matches(msg, a.keys.NewPost):
		if a.session.User() == nil {
			a.status = "sign in to create a post"
			return a, nil
		}
		cm := newComposeModel(a.keys, a.styles)
		a.compose = &cm
		a.active = screenCompose
	case key.Matches(msg, a.keys.CycleSport):
		a.feed.cycleSport()
	case key.Matches(msg, a.keys.CycleWindow):
		a.feed.cycleWindow()
	case key.Matches(msg, a.keys.FavoritesOnly):
		a.feed.toggleFavoritesOnly()
	}
	return a, nil
}

func (a *App) openSelection() (tea.Model, tea.Cmd) {
	user := a.session.User()
	if user == nil {
		a.status = "sign in to open a conversation (press l)"
		return a, nil
	}

	switch a.active {
	case screenFeed:
		post := a.feed.selected()
		if post == nil {
			return a, nil
		}
		if post.Owner.ID == user.ID {
			a.status = "this is your own post"
			return a, nil
		}
		return a, a.openChat(user.ID, post.ID, "")
	case screenMessages:
		item := a.messages.selected()
		if item == nil {
			return a, nil
		}
		return a, a.openChat(user.ID, item.PostID, item.ID)
	}
	return a, nil
}

func (a *App) closeChat() {
	if a.chat != nil {
		a.chat.ctrl.Close()
		a.chat = nil
	}
	if a.chatDone != nil {
		close(a.chatDone)
		a.chatDone = nil
	}
}

func (a *App) View() string {
	var body string
	switch a.active {
	case screenChat:
		if a.chat != nil {
			body = a.chat.view()
		}
	case screenMessages:
		body = a.messages.view()
	case screenProfile:
		body = a.profile.view()
	case screenCompose:
		if a.compose != nil {
			body = a.compose.view()
		}
	default:
		body = a.feed.view()
	}
	if a.status != "" {
		body += "\n" + a.styles.Error.Render(a.status)
	}
	return body + "\n"
}

func (a *App) loadFeed() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout*3)
		defer cancel()
		return feedLoadedMsg{posts: a.client.ListPosts(ctx)}
	}
}

func (a *App) loadUnread() tea.Cmd {
	return func() tea.Msg {
		user := a.session.User()
		if user == nil {
			return unreadMsg{unread: false}
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout*3)
		defer cancel()
		return unreadMsg{unread: feed.HasNewMessages(ctx, a.client, user.ID, a.log)}
	}
}

func (a *App) unreadTick() tea.Cmd {
	return tea.Tick(unreadPollInterval, func(time.Time) tea.Msg {
		return unreadTickMsg{}
	})
}

func (a *App) loadConversations() tea.Cmd {
	return func() tea.Msg {
		user := a.session.User()
		if user == nil {
			return convsLoadedMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout*3)
		defer cancel()
		items, err := a.client.ConversationsWithDetails(ctx, user.ID)
		if err != nil {
			return opErrMsg{err: err}
		}
		return convsLoadedMsg{items: items}
	}
}

// openChat bootstraps the controller and dials the realtime channel off
// the UI loop, then hands both back as one message.
func (a *App) openChat(selfID, postID, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctrl := chat.NewController(a.client, a.gate, selfID, postID, chat.Config{
			NoticeTTL:     a.cfg.NoticeDuration,
			SendPerMinute: a.cfg.Chat.SendPerMinute,
			SendBurst:     a.cfg.Chat.SendBurst,
		}, a.log)

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout*3)
		defer cancel()
		conv, err := ctrl.Bootstrap(ctx, conversationID)
		if err != nil {
			return opErrMsg{err: err}
		}

		ctrl.OnUpdate(func() {
			select {
			case a.refresh <- struct{}{}:
			default:
			}
		})

		channel, err := realtime.Dial(realtime.Config{
			URL:            a.cfg.Realtime.URL,
			PingInterval:   a.cfg.PingInterval,
			WriteDeadline:  a.cfg.WriteDeadline,
			MaxMessageSize: a.cfg.Realtime.MaxMessageSizeBytes,
		}, selfID, conv.ID, ctrl.Attach(nil), a.log)
		if err != nil {
			return opErrMsg{err: err}
		}
		// now that the channel exists, let the controller send through it
		ctrl.Attach(channel)

		return chatOpenedMsg{ctrl: ctrl}
	}
}

// waitRefresh blocks until the controller pokes the refresh channel or
// the chat session ends, so no listener outlives its screen.
func (a *App) waitRefresh(done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.refresh:
			return chatRefreshMsg{}
		case <-done:
			return nil
		}
	}
}

func (a *App) saveProfile() tea.Cmd {
	user := a.session.User()
	favorites := a.profile.favorites()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout*3)
		defer cancel()
		updated, err := a.client.UpdateUser(ctx, user.ID, map[string]interface{}{
			"favoriteSports": favorites,
		})
		return profileSaved{user: updated, err: err}
	}
}

func (a *App) createPost(np models.NewPost) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout*3)
		defer cancel()
		_, err := a.client.CreatePost(ctx, np)
		return postCreatedMsg{err: err}
	}
}

func (a *App) runLogin() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		if err := a.login.Run(ctx); err != nil {
			return sessionMsg{err: err}
		}
		return sessionMsg{err: a.session.Refresh(ctx, a.client)}
	}
}
