package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/birdmeal/internal/config"
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/search"
	"github.com/mmcdole/birdmeal/internal/tui/components"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmLogout:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.StatusMsg = "Signing out…"
			m.StatusIsErr = false
			return m, LogoutCmd(m.SessionSvc, m.Coordinator)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateConfirmRemove:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			item := m.pendingRemove
			return m, SubmitMutationCmd(m.Coordinator, domain.Remove(item.ID), item.Name)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateConfirmClear:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			return m, SubmitMutationCmd(m.Coordinator, domain.Clear(), "")
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateSearching:
		return m.handleSearchInput(msg)
	}

	// Typing into the list filter
	if list := m.activeList(); list.IsFilterTyping() {
		return m, list.Update(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if list := m.activeList(); list.IsFiltering() {
			list.ClearFilter()
			return m, nil
		}
		if m.ActiveView == config.ViewCatalog && m.Query.Text != "" {
			m.Query.Text = ""
			m.rebuildLists()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.activeList().ToggleFilter()
		return m, nil

	case key.Matches(msg, Keys.NextTab):
		if m.ActiveView == config.ViewCatalog {
			return m.switchView(config.ViewFavorites)
		}
		return m.switchView(config.ViewCatalog)

	case key.Matches(msg, Keys.Catalog):
		return m.switchView(config.ViewCatalog)

	case key.Matches(msg, Keys.Faves):
		return m.switchView(config.ViewFavorites)

	case key.Matches(msg, Keys.Search):
		if m.ActiveView != config.ViewCatalog {
			return m, nil
		}
		m.State = StateSearching
		m.SearchModal.Open(m.Query)
		return m, nil

	case key.Matches(msg, Keys.Category):
		return m.cycleCategory()

	case key.Matches(msg, Keys.Toggle):
		if m.ActiveView == config.ViewFavorites {
			return m.confirmRemove()
		}
		item, ok := m.CatalogList.SelectedItem()
		if !ok {
			return m, nil
		}
		return m, SubmitMutationCmd(m.Coordinator, domain.Toggle(item.ID), item.Name)

	case key.Matches(msg, Keys.Remove):
		if m.ActiveView == config.ViewFavorites {
			return m.confirmRemove()
		}
		item, ok := m.CatalogList.SelectedItem()
		if !ok {
			return m, nil
		}
		if !m.Favorites.Has(item.ID) {
			m.StatusMsg = item.Name + " is not a favorite"
			m.StatusIsErr = false
			return m, ClearStatusCmd(2 * time.Second)
		}
		return m, SubmitMutationCmd(m.Coordinator, domain.Remove(item.ID), item.Name)

	case key.Matches(msg, Keys.ClearAll):
		// Only offered when there is more than one favorite on screen
		if m.ActiveView != config.ViewFavorites || m.displayedFavs < 2 {
			return m, nil
		}
		if m.confirmClear {
			m.State = StateConfirmClear
			return m, nil
		}
		return m, SubmitMutationCmd(m.Coordinator, domain.Clear(), "")

	case key.Matches(msg, Keys.Refresh):
		m.Loading = true
		return m, tea.Batch(
			LoadCatalogCmd(m.CatalogSvc, true),
			RefreshFavoritesCmd(m.Coordinator),
		)

	case key.Matches(msg, Keys.Logout):
		m.State = StateConfirmLogout
		return m, nil
	}

	// Navigation within the active list
	return m, m.activeList().Update(msg)
}

// handleSearchInput routes keys to the search modal
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var action components.SearchAction
	m.SearchModal, cmd, action = m.SearchModal.Update(msg)

	switch action {
	case components.SearchApplied:
		q := m.SearchModal.Query()
		m.Query.Text = q.Text
		m.Query.Fuzzy = q.Fuzzy
		m.State = StateBrowsing
		m.rebuildLists()
		return m, nil
	case components.SearchCancelled:
		m.State = StateBrowsing
		return m, nil
	}
	return m, cmd
}

func (m Model) switchView(view config.View) (tea.Model, tea.Cmd) {
	if m.ActiveView == view {
		return m, nil
	}
	m.ActiveView = view
	m.focusActiveList()
	return m, SavePrefsCmd(m.prefsPath, m.currentPrefs())
}

// cycleCategory steps through All -> each category -> All
func (m Model) cycleCategory() (tea.Model, tea.Cmd) {
	if m.ActiveView != config.ViewCatalog || len(m.Categories) == 0 {
		return m, nil
	}

	next := search.AllCategories
	if m.Query.Category == search.AllCategories {
		next = m.Categories[0]
	} else {
		for i, c := range m.Categories {
			if c == m.Query.Category && i+1 < len(m.Categories) {
				next = m.Categories[i+1]
				break
			}
		}
	}
	m.Query.Category = next
	m.rebuildLists()
	return m, SavePrefsCmd(m.prefsPath, m.currentPrefs())
}

// confirmRemove asks before removing the selected favorite
func (m Model) confirmRemove() (tea.Model, tea.Cmd) {
	item, ok := m.FavoritesList.SelectedItem()
	if !ok {
		return m, nil
	}
	m.pendingRemove = item
	m.State = StateConfirmRemove
	return m, nil
}
