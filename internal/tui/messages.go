package tui

import (
	"github.com/mmcdole/birdmeal/internal/catalog"
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/favorites"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// CatalogLoadedMsg signals that the session catalog is available
type CatalogLoadedMsg struct {
	Result catalog.LoadResult
	Reload bool
}

// FavoritesUpdatedMsg carries a coordinator update to the UI goroutine
type FavoritesUpdatedMsg struct {
	Update domain.FavoritesUpdate
}

// MutationDoneMsg signals that a queued favorites mutation resolved
type MutationDoneMsg struct {
	Result favorites.Result
	Err    error
	Item   string // Display name of the item, empty for clear
}

// RefreshDoneMsg signals that the canonical profile was re-fetched
type RefreshDoneMsg struct {
	Result favorites.Result
	Err    error
}

// LogoutDoneMsg signals that the session was cleared
type LogoutDoneMsg struct {
	Err error
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
