package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/birdmeal/internal/catalog"
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/favorites"
	"github.com/mmcdole/birdmeal/internal/prefs"
	"github.com/mmcdole/birdmeal/internal/session"
)

// Command factories for async operations

// LoadCatalogCmd loads the session catalog. reload forces a fresh fetch.
func LoadCatalogCmd(store *catalog.Store, reload bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		load := store.Load
		if reload {
			load = store.Reload
		}
		res, err := load(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading catalog"}
		}
		return CatalogLoadedMsg{Result: res, Reload: reload}
	}
}

// WaitForFavoritesCmd waits for the next coordinator update.
// The model re-issues it after every FavoritesUpdatedMsg.
func WaitForFavoritesCmd(ch <-chan domain.FavoritesUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return FavoritesUpdatedMsg{Update: update}
	}
}

// SubmitMutationCmd queues a favorites mutation and waits for its outcome.
// The coordinator bounds each remote call itself; the timeout here only
// bounds how long the UI waits behind a long queue.
func SubmitMutationCmd(coord *favorites.Coordinator, req domain.MutationRequest, itemName string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		res, err := coord.Mutate(ctx, req)
		return MutationDoneMsg{Result: res, Err: err, Item: itemName}
	}
}

// RefreshFavoritesCmd re-fetches the canonical favorite set
func RefreshFavoritesCmd(coord *favorites.Coordinator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		res, err := coord.Refresh(ctx)
		return RefreshDoneMsg{Result: res, Err: err}
	}
}

// SavePrefsCmd persists UI preferences
func SavePrefsCmd(path string, p prefs.Prefs) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		if err := prefs.Save(path, p); err != nil {
			return ErrMsg{Err: err, Context: "saving preferences"}
		}
		return nil
	}
}

// LogoutCmd drains queued favorites changes, then clears the cached session
func LogoutCmd(svc *session.Service, coord *favorites.Coordinator) tea.Cmd {
	return func() tea.Msg {
		var w session.Writer
		if coord != nil {
			w = coord
		}
		return LogoutDoneMsg{Err: svc.Logout(w)}
	}
}

// ClearStatusCmd returns a command that clears the status after a delay
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
