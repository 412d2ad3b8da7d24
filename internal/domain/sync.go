package domain

// SyncState is a step of the favorites mutation state machine
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncPending
	SyncCommitted
	SyncRolledBack
	SyncPartiallyCommitted
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncPending:
		return "pending"
	case SyncCommitted:
		return "committed"
	case SyncRolledBack:
		return "rolled_back"
	case SyncPartiallyCommitted:
		return "partially_committed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state ends a mutation
func (s SyncState) IsTerminal() bool {
	return s == SyncCommitted || s == SyncRolledBack || s == SyncPartiallyCommitted
}

// FavoritesUpdate is published to observers whenever the displayed favorite set changes
type FavoritesUpdate struct {
	Favorites  FavoriteSet
	State      SyncState
	MutationID string
	Err        error // Set for RolledBack (cause) and PartiallyCommitted (warning)
}

// FavoritesObserver receives favorite set updates.
// OnFavorites is called from the coordinator goroutine and must not block.
type FavoritesObserver interface {
	OnFavorites(update FavoritesUpdate)
}

// ObserverFunc adapts a function to FavoritesObserver
type ObserverFunc func(FavoritesUpdate)

func (f ObserverFunc) OnFavorites(update FavoritesUpdate) { f(update) }

// NoOpObserver discards updates (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnFavorites(FavoritesUpdate) {}
