package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/birdmeal/internal/config"
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/search"
	"github.com/mmcdole/birdmeal/internal/tui/components"
	"github.com/mmcdole/birdmeal/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmLogout:
		return m.renderConfirmation("Log Out?", "This signs you out and clears\nthe cached profile and catalog.")
	case StateConfirmRemove:
		return m.renderConfirmation("Remove Favorite?", styles.Truncate(m.pendingRemove.Name, 32))
	case StateConfirmClear:
		return m.renderConfirmation("Clear Favorites?", fmt.Sprintf("This removes all %d favorites.", m.displayedFavs))
	case StateSearching:
		return lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.SearchModal.View())
	}

	contentHeight := m.Height - ChromeHeight
	layout := calculateColumnLayout(m.Width)
	list := m.activeList()

	content := list.View()
	if layout.detailWidth > 0 {
		detail := styles.InactiveBorder.
			Width(layout.detailWidth - 2).
			Height(contentHeight - 2).
			Render(m.renderDetail(layout.detailWidth - 4))
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, detail)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		content,
		m.renderFooter(),
	)
}

// renderTabs renders the view switcher and session info
func (m Model) renderTabs() string {
	tab := func(label string, view config.View) string {
		if m.ActiveView == view {
			return styles.ActiveTabStyle.Render(label)
		}
		return styles.InactiveTabStyle.Render(label)
	}

	left := tab("1 Catalog", config.ViewCatalog) + tab(fmt.Sprintf("2 Favorites %s %d", styles.HeartFull, m.displayedFavs), config.ViewFavorites)

	var right string
	if m.username != "" {
		right = styles.DimStyle.Render(m.username)
	}
	if m.Offline {
		right = styles.ErrorStyle.Render("offline") + " " + right
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + strings.Repeat(" ", gap) + right
}

// renderDetail shows the selected item
func (m Model) renderDetail(width int) string {
	item, ok := m.activeList().SelectedItem()
	if !ok {
		return styles.DimStyle.Render("No item selected")
	}
	return RenderItemDetail(item, m.Favorites.Has(item.ID), width)
}

// RenderItemDetail renders the detail pane for a catalog item
func RenderItemDetail(item domain.CatalogItem, favorite bool, width int) string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(wordWrap(item.Name, width)))
	b.WriteString("\n")

	if item.Category != "" {
		b.WriteString(styles.SubtitleStyle.Render(item.Category))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if favorite {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Rose).Render(styles.HeartFull + " Favorite"))
	} else {
		b.WriteString(styles.DimStyle.Render(styles.HeartEmpty + " Not a favorite"))
	}
	b.WriteString("\n\n")

	if birds := item.BirdNames(); len(birds) > 0 {
		b.WriteString(styles.DimStyle.Render("Suitable for:"))
		b.WriteString("\n")
		for _, bird := range birds {
			b.WriteString("  " + styles.Truncate(bird, width-2))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if item.ImageRef != "" {
		b.WriteString(styles.DimStyle.Render(wordWrap("Image: "+item.ImageRef, width)))
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// renderFooter renders status on the left, hints in the middle and help on the right
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Loading:
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Loading catalog...")
	case m.StatusMsg != "":
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	}
	if sync := components.SyncIndicator(m.SyncState, m.Spinner.View()); sync != "" {
		if left != "" {
			left += "  "
		}
		left += sync
	}

	// Context-specific hints
	var hints []string
	hint := func(k, label string) {
		hints = append(hints, styles.AccentStyle.Render(k)+styles.DimStyle.Render(" "+label))
	}
	if m.ActiveView == config.ViewCatalog {
		hint("space", "Toggle")
		hint("s", "Search")
		category := "All"
		if m.Query.Category != search.AllCategories {
			category = m.Query.Category
		}
		hint("c", category)
	} else {
		hint("x", "Remove")
		if m.displayedFavs > 1 {
			hint("C", "Clear all")
		}
	}
	center := strings.Join(hints, "  ")

	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		// Not enough space - just left + right
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      FAVORITES
  j/k        Up/down               Space  Toggle favorite
  g/Home     First item            x      Remove favorite
  G/End      Last item             C      Clear all
  Ctrl+u/d   Scroll half page      r      Refresh
  Tab        Switch view
  1/2        Catalog/Favorites

SEARCH                          OTHER
  /          Filter list           L      Logout
  s          Search name or bird   q      Quit
  c          Next category         ?      This help
  Esc        Clear filter/search

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderConfirmation renders a yes/no modal
func (m Model) renderConfirmation(title, body string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.ModalTitleStyle.Render(title),
		body,
		"",
		styles.AccentStyle.Render("[Y]")+" Yes      "+styles.AccentStyle.Render("[N]")+" No",
	)

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(content))
}

// wordWrap wraps text to the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lineLen := 0

	for i, word := range strings.Fields(text) {
		wordLen := lipgloss.Width(word)

		if lineLen+wordLen+1 > width && lineLen > 0 {
			result.WriteString("\n")
			lineLen = 0
		}

		if i > 0 && lineLen > 0 {
			result.WriteString(" ")
			lineLen++
		}

		result.WriteString(word)
		lineLen += wordLen
	}

	return result.String()
}
