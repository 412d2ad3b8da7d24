package tui

// Layout proportions
const (
	ListColumnPercent = 60
	MinColumnWidth    = 24
	MinDetailWidth    = 28 // Narrower terminals hide the detail pane

	// Tab bar + footer
	ChromeHeight = 2
)

// columnLayout holds calculated widths for the View
type columnLayout struct {
	listWidth   int
	detailWidth int // 0 if not shown
}

// calculateColumnLayout splits the width between the list and the detail pane
func calculateColumnLayout(availableWidth int) columnLayout {
	listWidth := max(availableWidth*ListColumnPercent/100, MinColumnWidth)
	detailWidth := availableWidth - listWidth
	if detailWidth < MinDetailWidth {
		return columnLayout{listWidth: availableWidth}
	}
	return columnLayout{listWidth: listWidth, detailWidth: detailWidth}
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	contentHeight := m.Height - ChromeHeight
	layout := calculateColumnLayout(m.Width)
	m.CatalogList.SetSize(layout.listWidth, contentHeight)
	m.FavoritesList.SetSize(layout.listWidth, contentHeight)
}
