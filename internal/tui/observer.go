package tui

import "github.com/mmcdole/birdmeal/internal/domain"

// ChannelObserver adapts domain.FavoritesObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan domain.FavoritesUpdate
}

// NewChannelObserver creates a new channel-based observer.
// ch should be buffered; only the latest update is kept when the UI falls behind.
func NewChannelObserver(ch chan domain.FavoritesUpdate) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnFavorites delivers the update without blocking the coordinator.
// A stale update still sitting in the channel is replaced.
func (o *ChannelObserver) OnFavorites(update domain.FavoritesUpdate) {
	for {
		select {
		case o.ch <- update:
			return
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}
