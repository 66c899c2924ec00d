package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SelectView ViewState = iota
	TrackListView
	ConfirmView
)

// PlaylistLoader lists the playlists offered for selection.
type PlaylistLoader func(ctx context.Context) ([]models.PlaylistRef, error)

// TrackLoader fetches the tracks of one playlist for preview.
type TrackLoader func(ctx context.Context, playlistID string) ([]models.Track, error)

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	view          ViewState
	loadPlaylists PlaylistLoader
	loadTracks    TrackLoader
	width         int
	height        int
	playlistList  list.Model
	playlists     []models.PlaylistRef
	selected      map[string]bool
	trackList     list.Model
	previewing    models.PlaylistRef
	done          bool
	cancelled     bool
	err           error
	help          help.Model
	keys          keyMap
}

// NewModel creates a selector. tracks may be nil, which disables preview.
func NewModel(ctx context.Context, playlists PlaylistLoader, tracks TrackLoader) *Model {
	return &Model{
		ctx:           ctx,
		view:          SelectView,
		loadPlaylists: playlists,
		loadTracks:    tracks,
		selected:      make(map[string]bool),
		help:          help.New(),
		keys:          newKeyMap(),
		playlistList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:     list.New(nil, list.NewDefaultDelegate(), 0, 0),
	}
}

// RunSelector shows the selector and returns the chosen playlists.
//
// Quitting without confirming returns an empty selection, which exports nothing.
func RunSelector(ctx context.Context, playlists PlaylistLoader, tracks TrackLoader, opts ...tea.ProgramOption) (tasks.Selection, error) {
	model := NewModel(ctx, playlists, tracks)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return tasks.Selection{}, fmt.Errorf("selector failed: %w", err)
	}

	m, ok := final.(*Model)
	if !ok {
		return tasks.Selection{}, fmt.Errorf("selector returned unexpected model %T", final)
	}
	if m.err != nil {
		return tasks.Selection{}, m.err
	}
	return m.Selection(), nil
}

// Selection returns the confirmed selection in listing order, or an empty one when the user quit.
func (m *Model) Selection() tasks.Selection {
	if !m.done || m.cancelled {
		return tasks.Selection{}
	}
	return tasks.Select(m.SelectedIDs()...)
}

// SelectedIDs returns the currently toggled playlist IDs in listing order.
func (m *Model) SelectedIDs() []string {
	ids := make([]string, 0, len(m.selected))
	for _, ref := range m.playlists {
		if m.selected[ref.ID] {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}

// Init initializes the TUI by fetching the source playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SelectView:
			return m.handleSelectKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		m.playlists = data.playlists
		m.refreshPlaylistItems()
		m.playlistList.Title = "Source Playlists"
		return m, nil

	case MsgTracksFetched:
		data := msg.data.(tracksFetched)
		if data.err != nil {
			m.playlistList.NewStatusMessage(styles.err.Render(fmt.Sprintf("preview failed: %v", data.err)))
			return m, nil
		}
		m.previewing = data.ref
		items := make([]list.Item, len(data.tracks))
		for i, track := range data.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList.SetItems(items)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", data.ref.Name)
		m.view = TrackListView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SelectView:
		return m.renderSelect()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handleSelectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected[item.ref.ID] = !m.selected[item.ref.ID]
			m.refreshPlaylistItems()
		}
		return m, nil
	case key.Matches(msg, m.keys.all):
		all := len(m.SelectedIDs()) == len(m.playlists)
		for _, ref := range m.playlists {
			m.selected[ref.ID] = !all
		}
		m.refreshPlaylistItems()
		return m, nil
	case key.Matches(msg, m.keys.preview):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok && m.loadTracks != nil {
			return m, m.fetchTracks(item.ref)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.view = ConfirmView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SelectView
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = SelectView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SelectView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) refreshPlaylistItems() {
	items := make([]list.Item, len(m.playlists))
	for i, ref := range m.playlists {
		items[i] = playlistItem{ref: ref, selected: m.selected[ref.ID]}
	}
	m.playlistList.SetItems(items)
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.loadPlaylists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) fetchTracks(ref models.PlaylistRef) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.loadTracks(m.ctx, ref.ID)
		return tracksFetchedMsg(ref, tracks, err)
	}
}

func (m *Model) renderSelect() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.all, m.keys.preview, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	status := styles.help.Render(fmt.Sprintf("%d of %d selected", len(m.SelectedIDs()), len(m.playlists)))
	return fmt.Sprintf("%s\n%s\n\n%s", m.playlistList.View(), status, helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	ids := m.SelectedIDs()
	if len(ids) == 0 {
		title := styles.warn.Render("No playlists selected. Export nothing?")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", title, helpView)
	}

	title := styles.title.Render(fmt.Sprintf("Export %d playlists?", len(ids)))

	tracks := 0
	var names string
	for _, ref := range m.playlists {
		if m.selected[ref.ID] {
			tracks += ref.TrackCount
			names += fmt.Sprintf("\n  • %s (%d tracks)", ref.Name, ref.TrackCount)
		}
	}
	info := styles.ok.Render(fmt.Sprintf("%d tracks in total", tracks))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n\n%s\n\n%s", title, names, info, helpView)
}
