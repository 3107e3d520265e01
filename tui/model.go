// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/ref"
	"github.com/skiff-chat/skiff/reconcile"
)

// FocusRegion identifies where keyboard input routes.
type FocusRegion int

const (
	// FocusComposer means keystrokes go to the message input.
	FocusComposer FocusRegion = iota
	// FocusSidebar means navigation keys move the room cursor.
	FocusSidebar
	// FocusMessages means the message cursor is active and mutation
	// keys (delete, edit, pin, react) apply to the selected message.
	FocusMessages
	// FocusFilter means keystrokes go to the sidebar fuzzy filter.
	FocusFilter
	// FocusSearch means keystrokes go to the message search input.
	FocusSearch
	// FocusModal means a members or pinned overlay is active.
	FocusModal
)

// sidebarWidth is the fixed column width of the room list pane.
const sidebarWidth = 28

// errorFadeDelay is how long a mutation error stays in the status
// bar.
const errorFadeDelay = 4 * time.Second

// snapshotMsg wraps a reconciler snapshot for delivery through the
// bubbletea message loop.
type snapshotMsg struct {
	snapshot reconcile.Snapshot
}

// roomsMsg delivers a fresh room list.
type roomsMsg struct {
	rooms []chat.Room
	err   error
}

// mutationResultMsg is sent when an asynchronous mutation completes.
// On success the next snapshot carries the new state; on error the
// status bar shows it.
type mutationResultMsg struct {
	err error
}

// errorFadeMsg clears the status bar error notice.
type errorFadeMsg struct{}

// modalMsg delivers fetched modal content.
type modalMsg struct {
	modal *Modal
	err   error
}

// Model is the top-level bubbletea model.
type Model struct {
	reconciler *reconcile.Reconciler
	session    chat.Session
	theme      Theme
	keys       KeyMap
	self       string

	width  int
	height int
	ready  bool

	focus      FocusRegion
	priorFocus FocusRegion

	sidebar  Sidebar
	viewport viewport.Model
	composer textarea.Model
	helpView help.Model
	showHelp bool

	snapshot    reconcile.Snapshot
	searchInput string
	modal       *Modal

	// selected indexes snapshot.Messages while the message cursor is
	// active; -1 when nothing is selected.
	selected int
	// editing is the message being edited through the composer, zero
	// when the composer sends a new message.
	editing ref.MessageID

	// persistRooms receives every fresh room list so the caller can
	// keep its cache current. Nil disables persistence.
	persistRooms func([]chat.Room)

	statusError string
}

// NewModel creates the TUI model. initialRooms may come from the room
// cache for instant paint; the first rooms fetch replaces it and is
// handed to persistRooms (when non-nil) so the cache stays current.
func NewModel(reconciler *reconcile.Reconciler, session chat.Session, theme Theme, initialRooms []chat.Room, persistRooms func([]chat.Room)) Model {
	composer := textarea.New()
	composer.Placeholder = "Message (Enter to send, Shift+Enter for newline)"
	composer.ShowLineNumbers = false
	composer.SetHeight(3)
	composer.CharLimit = 0
	composer.Focus()

	helpView := help.New()

	model := Model{
		reconciler:   reconciler,
		session:      session,
		theme:        theme,
		keys:         DefaultKeyMap,
		self:         session.Username(),
		focus:        FocusComposer,
		sidebar:      NewSidebar(theme, session.Username()),
		composer:     composer,
		helpView:     helpView,
		selected:     -1,
		persistRooms: persistRooms,
	}
	model.sidebar.SetRooms(initialRooms)
	return model
}

// Init implements tea.Model: start the snapshot subscription and the
// initial room list fetch.
func (model Model) Init() tea.Cmd {
	return tea.Batch(
		listenForSnapshot(model.reconciler.Updates()),
		fetchRooms(model.session, model.persistRooms),
	)
}

// listenForSnapshot blocks until the reconciler publishes, then
// delivers the snapshot as a snapshotMsg.
func listenForSnapshot(updates <-chan reconcile.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

func fetchRooms(session chat.Session, persist func([]chat.Room)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rooms, err := session.Rooms(ctx)
		if err == nil && persist != nil {
			persist(rooms)
		}
		return roomsMsg{rooms: rooms, err: err}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.layout()

	case snapshotMsg:
		model.applySnapshot(message.snapshot)
		return model, listenForSnapshot(model.reconciler.Updates())

	case roomsMsg:
		if message.err != nil {
			return model.showError(message.err.Error())
		}
		model.sidebar.SetRooms(message.rooms)
		// First room list with no active room: enter the top room.
		if model.snapshot.Room.ID.IsZero() {
			if selected := model.sidebar.Selected(); selected != nil {
				return model, model.switchRoom(*selected)
			}
		}

	case mutationResultMsg:
		if message.err != nil {
			return model.showError(message.err.Error())
		}

	case errorFadeMsg:
		model.statusError = ""

	case modalMsg:
		if message.err != nil {
			return model.showError(message.err.Error())
		}
		model.modal = message.modal
		model.priorFocus = model.focus
		model.focus = FocusModal
	}
	return model, nil
}

func (model Model) showError(text string) (tea.Model, tea.Cmd) {
	model.statusError = text
	return model, tea.Tick(errorFadeDelay, func(time.Time) tea.Msg {
		return errorFadeMsg{}
	})
}

// applySnapshot replaces the displayed message list and keeps the
// viewport pinned to the bottom when it was already there. An active
// message cursor is clamped to the new list instead.
func (model *Model) applySnapshot(snapshot reconcile.Snapshot) {
	wasAtBottom := model.viewport.AtBottom()
	model.snapshot = snapshot
	if model.selected >= len(snapshot.Messages) {
		model.selected = len(snapshot.Messages) - 1
	}
	model.refreshViewport()
	if wasAtBottom && model.focus != FocusMessages {
		model.viewport.GotoBottom()
	}
}

// refreshViewport re-renders the message pane. While the message
// cursor is active the selected message is highlighted and scrolled
// into view.
func (model *Model) refreshViewport() {
	if model.focus == FocusMessages && model.selected >= 0 && model.selected < len(model.snapshot.Messages) {
		content, start, end := renderMessagesSelected(model.snapshot.Messages, model.theme, model.contentWidth(), model.self, model.selected)
		model.viewport.SetContent(content)
		if start < model.viewport.YOffset {
			model.viewport.SetYOffset(start)
		} else if end >= model.viewport.YOffset+model.viewport.Height {
			model.viewport.SetYOffset(end - model.viewport.Height + 1)
		}
		return
	}
	model.viewport.SetContent(renderMessages(model.snapshot.Messages, model.theme, model.contentWidth(), model.self))
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Quit) {
		return model, tea.Quit
	}

	switch model.focus {
	case FocusModal:
		return model.handleModalKeys(message)
	case FocusFilter:
		return model.handleFilterKeys(message)
	case FocusSearch:
		return model.handleSearchKeys(message)
	}

	switch {
	case key.Matches(message, model.keys.Help):
		model.showHelp = !model.showHelp
		model.helpView.ShowAll = model.showHelp
		model.layout()

	case key.Matches(message, model.keys.FocusToggle):
		// Cycle composer -> sidebar -> messages -> composer.
		switch model.focus {
		case FocusComposer:
			model.focus = FocusSidebar
			model.composer.Blur()
		case FocusSidebar:
			model.focus = FocusMessages
			model.selected = len(model.snapshot.Messages) - 1
			model.refreshViewport()
		default:
			model.focus = FocusComposer
			model.selected = -1
			model.composer.Focus()
			model.refreshViewport()
		}

	case key.Matches(message, model.keys.RoomSwitcher):
		model.priorFocus = model.focus
		model.focus = FocusFilter
		model.sidebar.FilterActive = true
		model.composer.Blur()

	case key.Matches(message, model.keys.Search):
		model.priorFocus = model.focus
		model.focus = FocusSearch
		model.searchInput = ""
		model.composer.Blur()

	case key.Matches(message, model.keys.Members):
		return model, model.openMembersModal()

	case key.Matches(message, model.keys.Pinned):
		return model, model.openPinnedModal()

	case key.Matches(message, model.keys.Dismiss):
		switch {
		case model.focus == FocusMessages:
			model.focus = FocusComposer
			model.selected = -1
			model.composer.Focus()
			model.refreshViewport()
		case !model.editing.IsZero():
			model.editing = ref.MessageID{}
			model.composer.Reset()
		case model.snapshot.Query != "":
			model.reconciler.SetQuery("")
		}

	default:
		return model.handlePaneKeys(message)
	}
	return model, nil
}

func (model Model) handlePaneKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.focus == FocusMessages {
		return model.handleMessageKeys(message)
	}

	if model.focus == FocusSidebar {
		switch {
		case key.Matches(message, model.keys.Up):
			model.sidebar.MoveUp()
		case key.Matches(message, model.keys.Down):
			model.sidebar.MoveDown()
		case message.Type == tea.KeyEnter:
			if selected := model.sidebar.Selected(); selected != nil {
				return model, model.switchRoom(*selected)
			}
		}
		return model, nil
	}

	// Composer focus. Enter sends (or confirms an edit); Shift+Enter
	// (and Alt+Enter for terminals that cannot distinguish) inserts a
	// newline.
	if message.Type == tea.KeyEnter && !message.Alt {
		body := strings.TrimSpace(model.composer.Value())
		if body == "" {
			return model, nil
		}
		model.composer.Reset()
		if !model.editing.IsZero() {
			messageID := model.editing
			model.editing = ref.MessageID{}
			return model, model.editMessage(messageID, body)
		}
		return model, model.sendMessage(body)
	}

	// Viewport scrolling works while composing.
	switch {
	case key.Matches(message, model.keys.PageUp):
		model.viewport.HalfViewUp()
		return model, nil
	case key.Matches(message, model.keys.PageDown):
		model.viewport.HalfViewDown()
		return model, nil
	}

	var cmd tea.Cmd
	model.composer, cmd = model.composer.Update(message)
	return model, cmd
}

// reactionEmojis maps the reaction keys 1-3 to the quick-reaction
// emoji set offered on every message.
var reactionEmojis = map[string]string{
	"1": "thumbsup",
	"2": "heart",
	"3": "smile",
}

// handleMessageKeys drives the message cursor: navigation plus the
// per-message mutations (delete, edit, pin toggle, quick reactions).
func (model Model) handleMessageKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected := model.selectedMessage()
	switch {
	case key.Matches(message, model.keys.Up):
		if model.selected > 0 {
			model.selected--
			model.refreshViewport()
		}

	case key.Matches(message, model.keys.Down):
		if model.selected < len(model.snapshot.Messages)-1 {
			model.selected++
			model.refreshViewport()
		}

	case key.Matches(message, model.keys.DeleteMsg):
		if selected != nil {
			return model, model.deleteMessage(selected.ID)
		}

	case key.Matches(message, model.keys.EditMsg):
		// Only own messages are editable; the composer takes over
		// with the current body prefilled.
		if selected != nil && selected.Author.Username == model.self {
			model.editing = selected.ID
			model.composer.SetValue(selected.Body)
			model.focus = FocusComposer
			model.selected = -1
			model.composer.Focus()
			model.refreshViewport()
		}

	case key.Matches(message, model.keys.PinToggle):
		if selected != nil {
			if selected.Pinned {
				return model, model.unpinMessage(selected.ID)
			}
			return model, model.pinMessage(selected.ID)
		}

	case key.Matches(message, model.keys.React):
		if selected != nil {
			if emoji, ok := reactionEmojis[message.String()]; ok {
				return model, model.toggleReaction(selected.ID, emoji)
			}
		}
	}
	return model, nil
}

// selectedMessage returns the message under the cursor, nil when the
// cursor is inactive or out of range.
func (model Model) selectedMessage() *chat.Message {
	if model.selected < 0 || model.selected >= len(model.snapshot.Messages) {
		return nil
	}
	return &model.snapshot.Messages[model.selected]
}

func (model Model) handleModalKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Dismiss):
		model.modal = nil
		model.focus = model.priorFocus
		if model.focus == FocusComposer {
			model.composer.Focus()
		}
	case key.Matches(message, model.keys.Up):
		model.modal.ScrollUp()
	case key.Matches(message, model.keys.Down):
		model.modal.ScrollDown()
	}
	return model, nil
}

func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEscape:
		model.sidebar.ClearFilter()
		model.focus = model.priorFocus
		if model.focus == FocusComposer {
			model.composer.Focus()
		}
	case tea.KeyEnter:
		model.sidebar.FilterActive = false
		selected := model.sidebar.Selected()
		model.sidebar.ClearFilter()
		model.focus = FocusComposer
		model.composer.Focus()
		if selected != nil {
			return model, model.switchRoom(*selected)
		}
	case tea.KeyUp:
		model.sidebar.MoveUp()
	case tea.KeyDown:
		model.sidebar.MoveDown()
	case tea.KeyBackspace:
		model.sidebar.HandleBackspace()
	case tea.KeyRunes, tea.KeySpace:
		for _, character := range message.Runes {
			model.sidebar.HandleRune(character)
		}
	}
	return model, nil
}

func (model Model) handleSearchKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEscape:
		model.searchInput = ""
		model.reconciler.SetQuery("")
		model.focus = model.priorFocus
		if model.focus == FocusComposer {
			model.composer.Focus()
		}
	case tea.KeyEnter:
		// Enter escalates the live filter to a server-side search
		// shown in a result modal.
		query := strings.TrimSpace(model.searchInput)
		model.focus = model.priorFocus
		if model.focus == FocusComposer {
			model.composer.Focus()
		}
		if query != "" {
			return model, model.openSearchModal(query)
		}
	case tea.KeyBackspace:
		if model.searchInput != "" {
			runes := []rune(model.searchInput)
			model.searchInput = string(runes[:len(runes)-1])
			model.reconciler.SetQuery(model.searchInput)
		}
	case tea.KeyRunes, tea.KeySpace:
		model.searchInput += string(message.Runes)
		model.reconciler.SetQuery(model.searchInput)
	}
	return model, nil
}

// switchRoom selects a room: the reconciler clears and fetches
// synchronously, then the resulting snapshot arrives through the
// subscription.
func (model Model) switchRoom(room chat.Room) tea.Cmd {
	reconciler := model.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mutationResultMsg{err: reconciler.SetRoom(ctx, room)}
	}
}

func (model Model) sendMessage(body string) tea.Cmd {
	reconciler := model.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mutationResultMsg{err: reconciler.Send(ctx, body)}
	}
}

func (model Model) editMessage(messageID ref.MessageID, body string) tea.Cmd {
	reconciler := model.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mutationResultMsg{err: reconciler.Edit(ctx, messageID, body)}
	}
}

func (model Model) deleteMessage(messageID ref.MessageID) tea.Cmd {
	reconciler := model.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mutationResultMsg{err: reconciler.Delete(ctx, messageID)}
	}
}

func (model Model) pinMessage(messageID ref.MessageID) tea.Cmd {
	reconciler := model.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mutationResultMsg{err: reconciler.Pin(ctx, messageID)}
	}
}

func (model Model) unpinMessage(messageID ref.MessageID) tea.Cmd {
	reconciler := model.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mutationResultMsg{err: reconciler.Unpin(ctx, messageID)}
	}
}

func (model Model) toggleReaction(messageID ref.MessageID, emoji string) tea.Cmd {
	reconciler := model.reconciler
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mutationResultMsg{err: reconciler.ToggleReaction(ctx, messageID, emoji)}
	}
}

func (model Model) openSearchModal(query string) tea.Cmd {
	reconciler := model.reconciler
	theme := model.theme
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		results, err := reconciler.Search(ctx, query)
		if err != nil {
			return modalMsg{err: err}
		}
		return modalMsg{modal: NewSearchModal(query, results, theme)}
	}
}

func (model Model) openMembersModal() tea.Cmd {
	reconciler := model.reconciler
	theme := model.theme
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		members, err := reconciler.MembersPanel(ctx)
		if err != nil {
			return modalMsg{err: err}
		}
		return modalMsg{modal: NewMembersModal(members, theme)}
	}
}

func (model Model) openPinnedModal() tea.Cmd {
	reconciler := model.reconciler
	theme := model.theme
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		pinned, err := reconciler.PinnedPanel(ctx)
		if err != nil {
			return modalMsg{err: err}
		}
		return modalMsg{modal: NewPinnedModal(pinned, theme)}
	}
}

// contentWidth is the message pane width.
func (model Model) contentWidth() int {
	width := model.width - sidebarWidth - 1
	if width < 20 {
		width = 20
	}
	return width
}

// layout recomputes pane sizes after a resize or help toggle.
func (model *Model) layout() {
	helpHeight := 1
	composerHeight := model.composer.Height() + 1
	contentHeight := model.height - composerHeight - helpHeight - 1
	if contentHeight < 3 {
		contentHeight = 3
	}

	model.sidebar.SetSize(sidebarWidth, contentHeight)
	model.viewport.Width = model.contentWidth()
	model.viewport.Height = contentHeight
	model.composer.SetWidth(model.width - 2)
	model.helpView.Width = model.width

	model.refreshViewport()
	if model.focus != FocusMessages {
		model.viewport.GotoBottom()
	}
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Connecting..."
	}

	header := model.renderHeader()
	sidebarView := model.sidebar.View(model.focus == FocusSidebar || model.focus == FocusFilter)
	divider := model.renderDivider()
	content := lipgloss.JoinHorizontal(lipgloss.Top, sidebarView, divider, model.viewport.View())

	sections := []string{header, content, model.renderComposer(), model.renderStatusBar()}
	output := strings.Join(sections, "\n")

	if model.modal != nil {
		lines, anchorX, anchorY := model.modal.Render(model.width, model.height)
		output = spliceOverlay(output, lines, anchorX, anchorY)
	}
	return output
}

// renderHeader shows the active room, its topic, and search state.
func (model Model) renderHeader() string {
	room := model.snapshot.Room

	name := "no room"
	if !room.ID.IsZero() {
		name = room.DisplayName(model.self)
	}
	header := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render(" " + name)

	if room.Topic != "" {
		header += lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render("  " + room.Topic)
	}
	if model.focus == FocusSearch || model.snapshot.Query != "" {
		query := model.searchInput
		if query == "" {
			query = model.snapshot.Query
		}
		header += lipgloss.NewStyle().
			Foreground(model.theme.MatchForeground).
			Render("  search: " + query)
	}
	return ansi.Truncate(header, model.width, "…")
}

func (model Model) renderDivider() string {
	height := model.viewport.Height
	bar := lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render("│")
	lines := make([]string, height)
	for index := range lines {
		lines[index] = bar
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderComposer() string {
	border := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))
	return border + "\n" + model.composer.View()
}

// renderStatusBar shows either the current error, the fetch error
// from the snapshot, or the help line.
func (model Model) renderStatusBar() string {
	if model.statusError != "" {
		return lipgloss.NewStyle().
			Foreground(model.theme.ErrorText).
			Render(ansi.Truncate(" "+model.statusError, model.width, "…"))
	}
	if model.snapshot.Err != nil {
		return lipgloss.NewStyle().
			Foreground(model.theme.ErrorText).
			Render(ansi.Truncate(" offline: "+model.snapshot.Err.Error(), model.width, "…"))
	}
	return model.helpView.View(model.keys)
}
