package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/birdmeal/internal/search"
	"github.com/mmcdole/birdmeal/internal/tui/styles"
)

// SearchAction is what a key press in the search modal resolved to
type SearchAction int

const (
	SearchEditing SearchAction = iota
	SearchApplied
	SearchCancelled
)

// MatchCounter reports how many catalog items a query selects
type MatchCounter func(q search.Query) int

// SearchModal edits the catalog search text. While typing it previews the
// number of matches within the active category.
type SearchModal struct {
	open     bool
	category string
	fuzzy    bool
	matches  int
	count    MatchCounter
	input    textinput.Model
}

// NewSearchModal creates a closed search modal. count may be nil.
func NewSearchModal(count MatchCounter) SearchModal {
	ti := textinput.New()
	ti.Placeholder = "Food or bird name"
	ti.CharLimit = 64
	ti.Width = 30
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return SearchModal{count: count, input: ti}
}

// Open shows the modal seeded with the current query
func (m *SearchModal) Open(q search.Query) {
	m.open = true
	m.category = q.Category
	m.fuzzy = q.Fuzzy
	m.input.SetValue(q.Text)
	m.input.CursorEnd()
	m.input.Focus()
	m.recount()
}

// Close hides the modal without touching the query
func (m *SearchModal) Close() {
	m.open = false
	m.input.Blur()
}

func (m SearchModal) IsOpen() bool {
	return m.open
}

// Query returns the pending query with surrounding space trimmed
func (m SearchModal) Query() search.Query {
	return search.Query{Text: strings.TrimSpace(m.input.Value()), Category: m.category, Fuzzy: m.fuzzy}
}

// Matches is the preview count for the pending text
func (m SearchModal) Matches() int {
	return m.matches
}

func (m *SearchModal) recount() {
	if m.count == nil {
		m.matches = 0
		return
	}
	m.matches = m.count(m.Query())
}

// Update handles a message while open. Applying or cancelling closes the modal.
func (m SearchModal) Update(msg tea.Msg) (SearchModal, tea.Cmd, SearchAction) {
	if !m.open {
		return m, nil, SearchEditing
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, searchKeys.Apply):
			m.Close()
			return m, nil, SearchApplied
		case key.Matches(keyMsg, searchKeys.Cancel):
			m.Close()
			return m, nil, SearchCancelled
		case key.Matches(keyMsg, searchKeys.Fuzzy):
			m.fuzzy = !m.fuzzy
			m.recount()
			return m, nil, SearchEditing
		case key.Matches(keyMsg, searchKeys.Erase):
			m.input.SetValue("")
			m.recount()
			return m, nil, SearchEditing
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.recount()
	}
	return m, cmd, SearchEditing
}

// View renders the modal; empty when closed
func (m SearchModal) View() string {
	if !m.open {
		return ""
	}

	const width = 36
	line := lipgloss.NewStyle().Width(width).Background(styles.SlateDark)

	scope := "all categories"
	if m.category != search.AllCategories {
		scope = m.category
	}
	if m.fuzzy {
		scope += ", fuzzy"
	}

	preview := styles.AccentStyle.Render(matchLabel(m.matches))
	if m.matches == 0 && m.Query().Text != "" {
		preview = styles.ErrorStyle.Render("no matches")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Search catalog"),
		line.Render(styles.SubtitleStyle.Render("in "+scope)),
		line.Render(m.input.View()),
		line.Render(preview),
		line.Foreground(styles.DimGray).Render("enter apply · esc cancel · ^f fuzzy"),
	)
	return styles.ModalStyle.Render(content)
}

func matchLabel(n int) string {
	if n == 1 {
		return "1 match"
	}
	return fmt.Sprintf("%d matches", n)
}
