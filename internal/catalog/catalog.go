package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/birdmeal/internal/domain"
)

// LoadResult reports where the session catalog came from
type LoadResult struct {
	Count     int
	FromCache bool
	FetchedAt time.Time // Zero when unknown
}

// Store is the read-only session view of the catalog.
// Items are fetched once per session; the last fetched copy is kept in the
// local cache and served when the server is unreachable.
type Store struct {
	client domain.CatalogRepository
	cache  domain.CatalogCache
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	loaded bool
	items  []domain.CatalogItem
	byID   map[domain.ItemID]int
}

// NewStore creates a catalog store. cache may be nil.
func NewStore(client domain.CatalogRepository, cache domain.CatalogCache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, cache: cache, logger: logger, now: time.Now}
}

// Load fetches the catalog on first call and returns the session copy after that.
func (s *Store) Load(ctx context.Context) (LoadResult, error) {
	s.mu.RLock()
	if s.loaded {
		n := len(s.items)
		s.mu.RUnlock()
		return LoadResult{Count: n}, nil
	}
	s.mu.RUnlock()

	return s.fetch(ctx)
}

// Reload discards the session copy and fetches again
func (s *Store) Reload(ctx context.Context) (LoadResult, error) {
	return s.fetch(ctx)
}

func (s *Store) fetch(ctx context.Context) (LoadResult, error) {
	items, err := s.client.FetchItems(ctx)
	if err == nil {
		fetchedAt := s.now()
		if s.cache != nil {
			if err := s.cache.SaveCatalog(items, fetchedAt.Unix()); err != nil {
				s.logger.Error("failed to save catalog", "error", err)
			}
		}
		s.set(items)
		s.logger.Debug("fetched catalog", "count", len(items))
		return LoadResult{Count: len(items), FetchedAt: fetchedAt}, nil
	}

	s.logger.Error("failed to fetch catalog", "error", err)
	if !errors.Is(err, domain.ErrNetwork) || s.cache == nil {
		return LoadResult{}, err
	}

	cached, ok := s.cache.GetCatalog()
	if !ok {
		return LoadResult{}, err
	}
	s.set(cached)
	s.logger.Warn("serving cached catalog", "count", len(cached))

	res := LoadResult{Count: len(cached), FromCache: true}
	if unix, ok := s.cache.CatalogFetchedAt(); ok {
		res.FetchedAt = time.Unix(unix, 0)
	}
	return res, nil
}

func (s *Store) set(items []domain.CatalogItem) {
	byID := make(map[domain.ItemID]int, len(items))
	for i, it := range items {
		if _, dup := byID[it.ID]; dup {
			s.logger.Warn("duplicate catalog item id", "itemID", it.ID)
			continue
		}
		byID[it.ID] = i
	}

	s.mu.Lock()
	s.items = items
	s.byID = byID
	s.loaded = true
	s.mu.Unlock()
}

// Items returns the catalog in server order. Callers must not modify the slice.
func (s *Store) Items() []domain.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// Get returns the item with id
func (s *Store) Get(id domain.ItemID) (domain.CatalogItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.CatalogItem{}, false
	}
	return s.items[i], true
}

// Loaded reports whether a catalog is available for this session
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
