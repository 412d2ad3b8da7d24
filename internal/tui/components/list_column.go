package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// Layout constants for list columns
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// ListColumn is a scrollable list of catalog items with favorite hearts
type ListColumn struct {
	items     []domain.CatalogItem
	favorites domain.FavoriteSet
	pending   bool // Hearts reflect an unconfirmed mutation

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	title    string
	emptyMsg string

	// Loading state
	loading bool
	spinner string // Current spinner frame, rendered by the owner

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int // indices into items
}

// NewListColumn creates a list column with the given title
func NewListColumn(title, emptyMsg string) *ListColumn {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &ListColumn{
		title:       title,
		emptyMsg:    emptyMsg,
		filterInput: ti,
	}
}

// Update handles navigation and filter typing
func (c *ListColumn) Update(msg tea.Msg) tea.Cmd {
	// Filter input is active and focused (typing mode)
	if c.filterActive && c.filterInput.Focused() {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				c.clearFilter()
				return nil
			case "enter":
				// Accept filter, blur input to allow navigation
				c.filterInput.Blur()
				return nil
			case "backspace":
				if c.filterInput.Value() == "" {
					c.clearFilter()
					return nil
				}
			}
		}

		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.applyFilter()
		return cmd
	}

	count := c.ItemCount()
	if count == 0 {
		return nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(keyMsg, listKeys.Down):
		if c.cursor < count-1 {
			c.cursor++
			c.ensureVisible()
		}
	case key.Matches(keyMsg, listKeys.Up):
		if c.cursor > 0 {
			c.cursor--
			c.ensureVisible()
		}
	case key.Matches(keyMsg, listKeys.Home):
		c.cursor = 0
		c.offset = 0
	case key.Matches(keyMsg, listKeys.End):
		c.cursor = count - 1
		c.ensureVisible()
	case key.Matches(keyMsg, listKeys.HalfDown):
		c.cursor += max(c.maxVisible/2, 1)
		if c.cursor >= count {
			c.cursor = count - 1
		}
		c.ensureVisible()
	case key.Matches(keyMsg, listKeys.HalfUp):
		c.cursor -= max(c.maxVisible/2, 1)
		if c.cursor < 0 {
			c.cursor = 0
		}
		c.ensureVisible()
	}
	return nil
}

// View renders the column with its border
func (c *ListColumn) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}

	// Subtract frame (border) size so total rendered size equals c.width x c.height
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(c.width - frameW).
		Height(c.height - frameH).
		Render(c.renderContent())
}

// SetSize sets the outer dimensions of the column
func (c *ListColumn) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

func (c *ListColumn) SetFocused(focused bool) {
	c.focused = focused
}

func (c *ListColumn) Title() string {
	return c.title
}

func (c *ListColumn) SetTitle(title string) {
	c.title = title
}

func (c *ListColumn) SetLoading(loading bool) {
	c.loading = loading
}

func (c *ListColumn) IsLoading() bool {
	return c.loading
}

// SetSpinner updates the spinner frame shown while loading
func (c *ListColumn) SetSpinner(frame string) {
	c.spinner = frame
}

// SetItems replaces the list contents.
// The cursor stays on the same item when it is still present.
func (c *ListColumn) SetItems(items []domain.CatalogItem) {
	var selected domain.ItemID
	had := false
	if it, ok := c.SelectedItem(); ok {
		selected, had = it.ID, true
	}

	c.loading = false
	c.items = items
	if c.filterActive {
		c.applyFilter()
	}

	c.cursor = 0
	if had {
		for i := 0; i < c.ItemCount(); i++ {
			if c.items[c.mapIndex(i)].ID == selected {
				c.cursor = i
				break
			}
		}
	}
	c.offset = 0
	c.ensureVisible()
}

// SetFavorites updates the hearts shown next to each item
func (c *ListColumn) SetFavorites(set domain.FavoriteSet, pending bool) {
	c.favorites = set
	c.pending = pending
}

// SelectedItem returns the item under the cursor
func (c *ListColumn) SelectedItem() (domain.CatalogItem, bool) {
	count := c.ItemCount()
	if count == 0 || c.cursor >= count {
		return domain.CatalogItem{}, false
	}
	return c.items[c.mapIndex(c.cursor)], true
}

func (c *ListColumn) SelectedIndex() int {
	return c.cursor
}

// ItemCount returns the number of visible (filtered) items
func (c *ListColumn) ItemCount() int {
	if c.filteredIdx != nil {
		return len(c.filteredIdx)
	}
	return len(c.items)
}

func (c *ListColumn) IsEmpty() bool {
	return c.ItemCount() == 0
}

// ToggleFilter activates the filter input
func (c *ListColumn) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (c *ListColumn) IsFiltering() bool {
	return c.filterActive
}

// IsFilterTyping returns true if filter is active AND input is focused
func (c *ListColumn) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all items
func (c *ListColumn) ClearFilter() {
	c.clearFilter()
}

func (c *ListColumn) recalcMaxVisible() {
	// Reserve space for title line and scroll indicators
	interiorHeight := c.height - BorderHeight
	c.maxVisible = interiorHeight - ScrollIndicatorLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *ListColumn) ensureVisible() {
	// Don't adjust offset if size hasn't been set yet
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
}

func (c *ListColumn) clearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.filteredIdx = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()
}

// applyFilter matches the query against item names and bird names
func (c *ListColumn) applyFilter() {
	query := c.filterInput.Value()
	c.filterQuery = query

	if query == "" {
		c.filteredIdx = nil
		return
	}

	targets := make([]string, len(c.items))
	for i, it := range c.items {
		targets[i] = strings.ToLower(it.Name + " " + strings.Join(it.BirdNames(), " "))
	}

	matches := fuzzy.Find(strings.ToLower(query), targets)

	c.filteredIdx = make([]int, len(matches))
	for i, match := range matches {
		c.filteredIdx[i] = match.Index
	}

	c.cursor = 0
	c.offset = 0
}

func (c *ListColumn) mapIndex(i int) int {
	if c.filteredIdx != nil && i < len(c.filteredIdx) {
		return c.filteredIdx[i]
	}
	return i
}

// Rendering

func (c *ListColumn) renderContent() string {
	itemWidth := c.width - BorderWidth
	if itemWidth < 10 {
		itemWidth = 10
	}

	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))

	if c.loading {
		loadingLine := c.spinner + styles.DimStyle.Render(" Loading...")
		return titleLine + "\n" + " " + "\n" + loadingLine + "\n" + " "
	}

	count := c.ItemCount()
	if count == 0 {
		emptyMsg := styles.DimStyle.Render(c.emptyMsg)
		if c.filterActive && c.filterQuery != "" {
			emptyMsg = styles.DimStyle.Render("No matches")
		}
		content := titleLine + "\n" + " " + "\n" + emptyMsg + "\n" + " "
		if c.filterActive {
			content += "\n" + c.renderFilterBar()
		}
		return content
	}

	end := min(c.offset+c.maxVisible, count)

	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		lines = append(lines, c.renderItem(c.items[c.mapIndex(i)], i == c.cursor, itemWidth))
	}

	// Always reserve the indicator lines to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}
	return content
}

func (c *ListColumn) renderItem(item domain.CatalogItem, selected bool, width int) string {
	heart := styles.HeartEmpty
	heartColor := styles.DimGray
	if c.favorites.Has(item.ID) {
		heart = styles.HeartFull
		heartColor = styles.Rose
		if c.pending {
			heartColor = styles.LightGray
		}
	}

	category := ""
	if item.Category != "" {
		category = " " + item.Category
	}
	catColor := styles.DimGray

	// heart + space + name + category
	nameWidth := width - 2 - 2 - lipgloss.Width(category)
	if nameWidth < 4 {
		nameWidth = 4
		category = ""
	}
	name := styles.Truncate(item.Name, nameWidth)
	if pad := nameWidth - lipgloss.Width(name); pad > 0 {
		name += strings.Repeat(" ", pad)
	}

	parts := []styles.RowPart{
		{Text: heart, Foreground: &heartColor},
		{Text: " " + name},
		{Text: category, Foreground: &catColor},
	}
	return styles.RenderListRow(parts, selected, width)
}

func (c *ListColumn) renderFilterBar() string {
	input := c.filterInput.View()

	countStr := ""
	if c.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", c.ItemCount(), len(c.items)))
	}
	return input + countStr
}
