package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/birdmeal/internal/catalog"
	"github.com/mmcdole/birdmeal/internal/config"
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/favorites"
	"github.com/mmcdole/birdmeal/internal/search"
	"github.com/mmcdole/birdmeal/internal/session"
	"github.com/mmcdole/birdmeal/internal/store"
)

// fakeBackend serves the catalog and one profile from memory
type fakeBackend struct {
	mu       sync.Mutex
	profile  domain.Profile
	items    []domain.CatalogItem
	itemsErr error
	patchErr error
}

func (f *fakeBackend) FetchItems(ctx context.Context) ([]domain.CatalogItem, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.items, nil
}

func (f *fakeBackend) FetchProfileByCredentials(ctx context.Context, username, secret string) (*domain.Profile, error) {
	return f.FetchCanonicalProfile(ctx, username, secret)
}

func (f *fakeBackend) FetchCanonicalProfile(ctx context.Context, username, secret string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profile
	return &p, nil
}

func (f *fakeBackend) PatchFavorites(ctx context.Context, id domain.ProfileID, set domain.FavoriteSet) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	f.profile.Favorites = set
	p := f.profile
	return &p, nil
}

func (f *fakeBackend) favorites() domain.FavoriteSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile.Favorites
}

var testItems = []domain.CatalogItem{
	{ID: 1, Name: "Millet Spray", Category: "Seeds", Suitability: []domain.SuitabilityEntry{{BirdName: "Finch"}}},
	{ID: 2, Name: "Mealworms", Category: "Insects", Suitability: []domain.SuitabilityEntry{{BirdName: "Robin"}}},
	{ID: 3, Name: "Sunflower Hearts", Category: "Seeds", Suitability: []domain.SuitabilityEntry{{BirdName: "Goldfinch"}}},
	{ID: 4, Name: "Suet Cake", Category: "", Suitability: []domain.SuitabilityEntry{{BirdName: "Woodpecker"}}},
}

type testEnv struct {
	backend *fakeBackend
	store   *store.Store
	catalog *catalog.Store
}

func newTestEnv(t *testing.T, favs ...domain.ItemID) *testEnv {
	t.Helper()
	st, err := store.New(t.TempDir(), "http://localhost:3000")
	if err != nil {
		t.Fatalf("store.New returned error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	backend := &fakeBackend{
		profile: domain.Profile{ID: 7, Username: "tom", Secret: "pw", Favorites: domain.NewFavoriteSet(favs...)},
		items:   testItems,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		backend: backend,
		store:   st,
		catalog: catalog.NewStore(backend, st, logger),
	}
}

// model builds a sized model with the catalog loaded
func (e *testEnv) model(t *testing.T) Model {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := favorites.NewCoordinator(e.backend.profile, e.backend, e.store, favorites.Options{}, logger)
	t.Cleanup(coord.Close)

	m := NewModel(Options{
		Catalog:      e.catalog,
		Search:       search.NewService(e.catalog, logger),
		Coordinator:  coord,
		Session:      session.NewService(e.backend, e.store, logger),
		Username:     "tom",
		DefaultView:  config.ViewCatalog,
		ConfirmClear: true,
	})
	t.Cleanup(m.Close)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, LoadCatalogCmd(e.catalog, false)())
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(t, m, keyPress(k))
	}
	return m, cmd
}

// run executes a command and feeds its message back into the model
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ = update(t, m, cmd())
	return m
}

func listIDs(items []domain.CatalogItem) []domain.ItemID {
	ids := make([]domain.ItemID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func TestModel_CatalogLoaded(t *testing.T) {
	m := newTestEnv(t, 3).model(t)

	if m.Loading {
		t.Fatal("model still loading after catalog loaded")
	}
	if got := m.CatalogList.ItemCount(); got != 4 {
		t.Fatalf("catalog items = %d, want 4", got)
	}
	if got := m.FavoritesList.ItemCount(); got != 1 {
		t.Fatalf("favorites items = %d, want 1", got)
	}
	if want := []string{"Seeds", "Insects"}; !slices.Equal(m.Categories, want) {
		t.Fatalf("Categories = %v, want %v", m.Categories, want)
	}
}

func TestModel_ToggleFromCatalog(t *testing.T) {
	env := newTestEnv(t, 3)
	m := env.model(t)

	m, cmd := press(t, m, " ")
	m = run(t, m, cmd)

	want := domain.NewFavoriteSet(1, 3)
	if !m.Favorites.Equal(want) {
		t.Fatalf("Favorites = %v, want %v", m.Favorites.IDs(), want.IDs())
	}
	if !env.backend.favorites().Equal(want) {
		t.Fatalf("remote favorites = %v, want %v", env.backend.favorites().IDs(), want.IDs())
	}
	if m.StatusIsErr || !strings.Contains(m.StatusMsg, "Added Millet Spray") {
		t.Fatalf("status = %q (err %v), want added message", m.StatusMsg, m.StatusIsErr)
	}
	if got := m.FavoritesList.ItemCount(); got != 2 {
		t.Fatalf("favorites items = %d, want 2", got)
	}

	// Observer delivered the committed set too
	msg := WaitForFavoritesCmd(m.updates)()
	upd, ok := msg.(FavoritesUpdatedMsg)
	if !ok || upd.Update.State != domain.SyncCommitted {
		t.Fatalf("observer message = %#v, want committed update", msg)
	}
}

func TestModel_RollbackShowsError(t *testing.T) {
	env := newTestEnv(t, 3)
	env.backend.patchErr = fmt.Errorf("%w: connection refused", domain.ErrNetwork)
	m := env.model(t)

	m, cmd := press(t, m, " ")
	m = run(t, m, cmd)

	if !m.Favorites.Equal(domain.NewFavoriteSet(3)) {
		t.Fatalf("Favorites = %v, want [3]", m.Favorites.IDs())
	}
	if !m.StatusIsErr || !strings.Contains(m.StatusMsg, "Could not update favorites") {
		t.Fatalf("status = %q (err %v), want rollback error", m.StatusMsg, m.StatusIsErr)
	}
	if m.SyncState != domain.SyncRolledBack {
		t.Fatalf("SyncState = %v, want rolled_back", m.SyncState)
	}
}

func TestModel_RemoveAsksForConfirmation(t *testing.T) {
	env := newTestEnv(t, 1, 3)
	m := env.model(t)

	m, _ = press(t, m, "2")
	if m.ActiveView != config.ViewFavorites {
		t.Fatalf("ActiveView = %v, want favorites", m.ActiveView)
	}

	m, _ = press(t, m, "x")
	if m.State != StateConfirmRemove || m.pendingRemove.ID != 1 {
		t.Fatalf("state = %v pending %d, want confirm remove of 1", m.State, m.pendingRemove.ID)
	}

	m, cmd := press(t, m, "n")
	if m.State != StateBrowsing || cmd != nil {
		t.Fatalf("deny: state = %v cmd %v, want browsing without command", m.State, cmd != nil)
	}

	m, cmd = press(t, m, "x", "y")
	m = run(t, m, cmd)
	if !m.Favorites.Equal(domain.NewFavoriteSet(3)) {
		t.Fatalf("Favorites = %v, want [3]", m.Favorites.IDs())
	}
	if got := listIDs(favorites.Project(testItems, m.Favorites)); !slices.Equal(got, []domain.ItemID{3}) {
		t.Fatalf("projection = %v, want [3]", got)
	}
}

func TestModel_ClearAllNeedsMoreThanOneFavorite(t *testing.T) {
	m := newTestEnv(t, 1).model(t)
	m, cmd := press(t, m, "2", "C")
	if m.State != StateBrowsing || cmd != nil {
		t.Fatalf("state = %v, want clear all ignored with one favorite", m.State)
	}

	env := newTestEnv(t, 1, 3)
	m = env.model(t)
	m, _ = press(t, m, "2", "C")
	if m.State != StateConfirmClear {
		t.Fatalf("state = %v, want confirm clear", m.State)
	}
	m, cmd = press(t, m, "y")
	m = run(t, m, cmd)
	if !m.Favorites.IsEmpty() || !env.backend.favorites().IsEmpty() {
		t.Fatalf("favorites = %v remote %v, want empty", m.Favorites.IDs(), env.backend.favorites().IDs())
	}
	if !strings.Contains(m.StatusMsg, "Cleared") {
		t.Fatalf("status = %q, want cleared message", m.StatusMsg)
	}
}

func TestModel_CategoryCycle(t *testing.T) {
	m := newTestEnv(t).model(t)

	steps := []struct {
		category string
		count    int
	}{
		{"Seeds", 2},
		{"Insects", 1},
		{search.AllCategories, 4},
	}
	for _, step := range steps {
		m, _ = press(t, m, "c")
		if m.Query.Category != step.category {
			t.Fatalf("Category = %q, want %q", m.Query.Category, step.category)
		}
		if got := m.CatalogList.ItemCount(); got != step.count {
			t.Fatalf("items in %q = %d, want %d", step.category, got, step.count)
		}
	}
}

func TestModel_SearchModal(t *testing.T) {
	m := newTestEnv(t).model(t)

	m, _ = press(t, m, "s")
	if m.State != StateSearching {
		t.Fatalf("state = %v, want searching", m.State)
	}
	m, _ = press(t, m, "robin")
	if got := m.SearchModal.Matches(); got != 1 {
		t.Fatalf("preview matches = %d, want 1", got)
	}
	if out := m.View(); !strings.Contains(out, "1 match") || !strings.Contains(out, "in all categories") {
		t.Fatal("search modal missing match preview or scope")
	}
	m, _ = press(t, m, "enter")
	if m.State != StateBrowsing || m.Query.Text != "robin" {
		t.Fatalf("state = %v query %q, want browsing with robin", m.State, m.Query.Text)
	}
	item, ok := m.CatalogList.SelectedItem()
	if m.CatalogList.ItemCount() != 1 || !ok || item.ID != 2 {
		t.Fatalf("results = %d selected %+v, want only Mealworms", m.CatalogList.ItemCount(), item)
	}

	m, _ = press(t, m, "s", "zzz")
	if out := m.View(); !strings.Contains(out, "no matches") {
		t.Fatal("search modal missing empty preview")
	}
	m, _ = press(t, m, "esc")
	if m.State != StateBrowsing || m.Query.Text != "robin" {
		t.Fatalf("after cancel state = %v query %q, want browsing with robin kept", m.State, m.Query.Text)
	}

	m, _ = press(t, m, "esc")
	if m.Query.Text != "" || m.CatalogList.ItemCount() != 4 {
		t.Fatalf("after esc query %q items %d, want cleared", m.Query.Text, m.CatalogList.ItemCount())
	}
}

func TestModel_ListFilter(t *testing.T) {
	m := newTestEnv(t).model(t)

	m, _ = press(t, m, "/", "woodpecker")
	if !m.CatalogList.IsFilterTyping() {
		t.Fatal("filter not active")
	}
	item, ok := m.CatalogList.SelectedItem()
	if m.CatalogList.ItemCount() != 1 || !ok || item.ID != 4 {
		t.Fatalf("filtered = %d selected %+v, want Suet Cake", m.CatalogList.ItemCount(), item)
	}

	m, _ = press(t, m, "esc")
	if m.CatalogList.IsFiltering() || m.CatalogList.ItemCount() != 4 {
		t.Fatal("esc did not clear the filter")
	}
}

func TestModel_OfflineCatalog(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.SaveCatalog(testItems, 1700000000); err != nil {
		t.Fatalf("SaveCatalog returned error: %v", err)
	}
	env.backend.itemsErr = fmt.Errorf("%w: connection refused", domain.ErrNetwork)

	m := env.model(t)
	if !m.Offline || m.CatalogList.ItemCount() != 4 {
		t.Fatalf("offline = %v items %d, want offline copy of 4", m.Offline, m.CatalogList.ItemCount())
	}
	if !m.StatusIsErr || !strings.HasPrefix(m.StatusMsg, "Offline") {
		t.Fatalf("status = %q, want offline notice", m.StatusMsg)
	}
}

func TestModel_Logout(t *testing.T) {
	env := newTestEnv(t, 1)
	if err := env.store.WriteProfile(env.backend.profile); err != nil {
		t.Fatalf("WriteProfile returned error: %v", err)
	}
	m := env.model(t)

	m, _ = press(t, m, "L")
	if m.State != StateConfirmLogout {
		t.Fatalf("state = %v, want confirm logout", m.State)
	}
	m, cmd := press(t, m, "y")
	m, quit := update(t, m, cmd())
	if !m.LoggedOut || quit == nil {
		t.Fatalf("LoggedOut = %v quit %v, want logged out and quitting", m.LoggedOut, quit != nil)
	}
	if _, ok, _ := env.store.ReadProfile(); ok {
		t.Fatal("cached profile survived logout")
	}
	if _, err := m.Coordinator.Mutate(context.Background(), domain.Add(2)); !errors.Is(err, domain.ErrCoordinatorClosed) {
		t.Fatalf("Mutate after logout err = %v, want ErrCoordinatorClosed", err)
	}
}

func TestModel_View(t *testing.T) {
	m := newTestEnv(t, 1).model(t)

	out := m.View()
	for _, want := range []string{"Catalog", "Millet Spray", "Finch", "? help"} {
		if !strings.Contains(out, want) {
			t.Fatalf("View missing %q", want)
		}
	}

	m, _ = press(t, m, "?")
	if out := m.View(); !strings.Contains(out, "Toggle favorite") {
		t.Fatal("help screen missing key descriptions")
	}
}
