package components

import (
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/tui/styles"
)

// SyncIndicator renders the favorites sync state for the status bar.
// spinner is the current spinner frame, already styled.
func SyncIndicator(state domain.SyncState, spinner string) string {
	switch state {
	case domain.SyncPending:
		return spinner + styles.SpinnerStyle.Render(" saving")
	case domain.SyncCommitted:
		return styles.SuccessStyle.Render("✓ saved")
	case domain.SyncRolledBack:
		return styles.ErrorStyle.Render("✗ not saved")
	case domain.SyncPartiallyCommitted:
		return styles.AccentStyle.Render("! saved, unconfirmed")
	default:
		return ""
	}
}
