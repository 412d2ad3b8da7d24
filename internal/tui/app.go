package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/birdmeal/internal/catalog"
	"github.com/mmcdole/birdmeal/internal/config"
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/favorites"
	"github.com/mmcdole/birdmeal/internal/prefs"
	"github.com/mmcdole/birdmeal/internal/search"
	"github.com/mmcdole/birdmeal/internal/session"
	"github.com/mmcdole/birdmeal/internal/tui/components"
	"github.com/mmcdole/birdmeal/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearching
	StateHelp
	StateConfirmRemove
	StateConfirmClear
	StateConfirmLogout
)

// Options wires the model to the application services
type Options struct {
	Catalog     *catalog.Store
	Search      *search.Service
	Coordinator *favorites.Coordinator
	Session     *session.Service

	Username     string
	DefaultView  config.View
	ConfirmClear bool
	FuzzySearch  bool

	PrefsPath string // Empty disables persistence
	Prefs     prefs.Prefs
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State      ApplicationState
	Ready      bool
	ActiveView config.View

	// Services
	CatalogSvc  *catalog.Store
	SearchSvc   *search.Service
	Coordinator *favorites.Coordinator
	SessionSvc  *session.Service

	// UI Components
	CatalogList   *components.ListColumn
	FavoritesList *components.ListColumn
	SearchModal   components.SearchModal
	Spinner       spinner.Model

	// Data
	Query      search.Query
	Categories []string
	Favorites  domain.FavoriteSet
	SyncState  domain.SyncState
	Offline    bool      // Catalog served from the local copy
	OfflineAt  time.Time // When that copy was fetched

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	Loading     bool
	LoggedOut   bool

	username      string
	confirmClear  bool
	prefsPath     string
	pendingRemove domain.CatalogItem
	displayedFavs int

	updates     chan domain.FavoritesUpdate
	unsubscribe func()
}

// NewModel creates a new application model subscribed to favorites updates
func NewModel(opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{Frames: styles.SpinnerFrames, FPS: time.Second / 12}
	sp.Style = styles.SpinnerStyle

	view := opts.DefaultView
	if v := config.View(opts.Prefs.LastView); v == config.ViewCatalog || v == config.ViewFavorites {
		view = v
	}
	if view != config.ViewFavorites {
		view = config.ViewCatalog
	}

	updates := make(chan domain.FavoritesUpdate, 1)
	unsubscribe := opts.Coordinator.Subscribe(NewChannelObserver(updates))

	m := Model{
		State:         StateBrowsing,
		ActiveView:    view,
		CatalogSvc:    opts.Catalog,
		SearchSvc:     opts.Search,
		Coordinator:   opts.Coordinator,
		SessionSvc:    opts.Session,
		CatalogList:   components.NewListColumn("Catalog", "No items"),
		FavoritesList: components.NewListColumn("Favorites", "No favorites yet"),
		SearchModal:   components.NewSearchModal(matchCounter(opts.Search)),
		Spinner:       sp,
		Query:         search.Query{Category: opts.Prefs.LastCategory, Fuzzy: opts.FuzzySearch},
		Favorites:     opts.Coordinator.Favorites(),
		SyncState:     opts.Coordinator.State(),
		Loading:       true,
		username:      opts.Username,
		confirmClear:  opts.ConfirmClear,
		prefsPath:     opts.PrefsPath,
		updates:       updates,
		unsubscribe:   unsubscribe,
	}
	m.CatalogList.SetLoading(true)
	m.FavoritesList.SetLoading(true)
	m.focusActiveList()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadCatalogCmd(m.CatalogSvc, false),
		WaitForFavoritesCmd(m.updates),
		m.Spinner.Tick,
	)
}

// Close detaches the model from the coordinator
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		if m.Loading {
			frame := m.Spinner.View()
			m.CatalogList.SetSpinner(frame)
			m.FavoritesList.SetSpinner(frame)
		}
		return m, cmd

	case CatalogLoadedMsg:
		m.Loading = false
		m.Offline = msg.Result.FromCache
		m.OfflineAt = msg.Result.FetchedAt
		m.Categories = m.SearchSvc.Categories()
		if m.Query.Category != search.AllCategories && !slices.Contains(m.Categories, m.Query.Category) {
			m.Query.Category = search.AllCategories
		}
		m.rebuildLists()

		if dangling := favorites.Dangling(m.CatalogSvc.Items(), m.Favorites); len(dangling) > 0 {
			slog.Debug("favorites missing from catalog", "itemIDs", dangling)
		}

		switch {
		case msg.Result.FromCache:
			m.StatusMsg = "Offline: showing catalog saved " + formatFetchedAt(msg.Result.FetchedAt)
			m.StatusIsErr = true
			return m, ClearStatusCmd(5 * time.Second)
		case msg.Reload:
			m.StatusMsg = fmt.Sprintf("Catalog refreshed (%d items)", msg.Result.Count)
			m.StatusIsErr = false
			return m, ClearStatusCmd(3 * time.Second)
		}
		return m, nil

	case FavoritesUpdatedMsg:
		m.Favorites = msg.Update.Favorites
		m.SyncState = msg.Update.State
		m.rebuildLists()
		return m, WaitForFavoritesCmd(m.updates)

	case MutationDoneMsg:
		m.syncFromCoordinator(msg.Result.State)
		m.StatusMsg, m.StatusIsErr = mutationStatus(msg)
		return m, ClearStatusCmd(3 * time.Second)

	case RefreshDoneMsg:
		m.syncFromCoordinator(msg.Result.State)
		if msg.Err != nil {
			m.StatusMsg = "Could not refresh favorites: " + msg.Err.Error()
			m.StatusIsErr = true
			return m, ClearStatusCmd(5 * time.Second)
		}
		return m, nil

	case LogoutDoneMsg:
		if msg.Err != nil {
			m.State = StateBrowsing
			m.StatusMsg = "Logout failed: " + msg.Err.Error()
			m.StatusIsErr = true
			return m, ClearStatusCmd(5 * time.Second)
		}
		m.LoggedOut = true
		return m, tea.Quit

	case ErrMsg:
		slog.Error("tui operation failed", "context", msg.Context, "error", msg.Err)
		m.StatusMsg = msg.Error()
		m.StatusIsErr = true
		if m.Loading {
			m.Loading = false
			m.CatalogList.SetLoading(false)
			m.FavoritesList.SetLoading(false)
		}
		return m, ClearStatusCmd(5 * time.Second)

	case StatusMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		return m, ClearStatusCmd(3 * time.Second)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		if m.SyncState.IsTerminal() {
			m.SyncState = m.Coordinator.State()
		}
		return m, nil
	}

	// Cursor blink and other input plumbing
	var cmd tea.Cmd
	switch {
	case m.State == StateSearching:
		m.SearchModal, cmd, _ = m.SearchModal.Update(msg)
	case m.activeList().IsFilterTyping():
		cmd = m.activeList().Update(msg)
	}
	return m, cmd
}

// syncFromCoordinator adopts the coordinator snapshot once a request resolved.
// Observer updates can be conflated, so the snapshot is authoritative here.
func (m *Model) syncFromCoordinator(state domain.SyncState) {
	m.Favorites = m.Coordinator.Favorites()
	if state.IsTerminal() {
		m.SyncState = state
	}
	m.rebuildLists()
}

// mutationStatus describes a resolved mutation for the status bar
func mutationStatus(msg MutationDoneMsg) (string, bool) {
	res := msg.Result
	if errors.Is(msg.Err, domain.ErrCoordinatorClosed) {
		return "Favorites are unavailable", true
	}

	switch res.State {
	case domain.SyncCommitted, domain.SyncPartiallyCommitted:
		var text string
		switch res.Request.Kind {
		case domain.MutationClear:
			text = "Cleared favorites"
		default:
			if res.Favorites.Has(res.Request.ItemID) {
				text = "Added " + msg.Item + " to favorites"
			} else {
				text = "Removed " + msg.Item + " from favorites"
			}
		}
		if res.State == domain.SyncPartiallyCommitted {
			return text + " (not confirmed, press r to refresh)", true
		}
		return text, false
	default:
		err := msg.Err
		if err == nil {
			err = res.Err
		}
		if err == nil {
			return "Favorites unchanged", true
		}
		return "Could not update favorites: " + err.Error(), true
	}
}

// rebuildLists re-derives both lists from the catalog, query and favorite set
func (m *Model) rebuildLists() {
	if !m.CatalogSvc.Loaded() {
		return
	}
	items := m.CatalogSvc.Items()
	pending := m.SyncState == domain.SyncPending

	results := m.SearchSvc.Search(m.Query)
	matched := make([]domain.CatalogItem, len(results))
	for i, r := range results {
		matched[i] = r.Item
	}
	m.CatalogList.SetItems(matched)
	m.CatalogList.SetFavorites(m.Favorites, pending)
	m.CatalogList.SetTitle(m.catalogTitle(len(matched), len(items)))

	faves := favorites.Project(items, m.Favorites)
	m.displayedFavs = len(faves)
	m.FavoritesList.SetItems(faves)
	m.FavoritesList.SetFavorites(m.Favorites, pending)
	m.FavoritesList.SetTitle(fmt.Sprintf("Favorites (%d)", len(faves)))
}

func (m Model) catalogTitle(shown, total int) string {
	title := "Catalog"
	if m.Query.Category != search.AllCategories {
		title += " · " + m.Query.Category
	}
	if m.Query.Text != "" {
		title += fmt.Sprintf(" · %q", m.Query.Text)
	}
	if shown != total {
		title += fmt.Sprintf(" (%d/%d)", shown, total)
	}
	return title
}

func (m Model) activeList() *components.ListColumn {
	if m.ActiveView == config.ViewFavorites {
		return m.FavoritesList
	}
	return m.CatalogList
}

func (m *Model) focusActiveList() {
	m.CatalogList.SetFocused(m.ActiveView == config.ViewCatalog)
	m.FavoritesList.SetFocused(m.ActiveView == config.ViewFavorites)
}

// currentPrefs captures the preferences worth restoring next run
func (m Model) currentPrefs() prefs.Prefs {
	return prefs.Prefs{
		LastView:     string(m.ActiveView),
		LastCategory: m.Query.Category,
	}
}

func formatFetchedAt(t time.Time) string {
	if t.IsZero() {
		return "earlier"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// matchCounter previews search hits for the search modal
func matchCounter(svc *search.Service) components.MatchCounter {
	if svc == nil {
		return nil
	}
	return func(q search.Query) int {
		return len(svc.Search(q))
	}
}
