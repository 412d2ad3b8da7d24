package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/birdmeal/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketSession = []byte("session")
	bucketCatalog = []byte("catalog")
)

// Keys
const (
	keyProfile   = "profile"
	keyItems     = "items"
	keyFetchedAt = "fetched_at"
)

var _ domain.Store = (*Store)(nil)

// Store implements domain.Store using BoltDB.
// The profile slot is a single JSON document under session/profile.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// New opens the store under baseCacheDir, scoped per server URL.
// An empty baseCacheDir runs memory-only.
func New(baseCacheDir, serverURL string) (*Store, error) {
	if baseCacheDir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "birdmeal.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSession, bucketCatalog} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// raw returns the stored bytes for bucket/key, checking memory first.
// A miss is filled from bolt under the write lock so a slower reader cannot
// promote bytes that a concurrent set or delete has already replaced.
func (s *Store) raw(bucket []byte, key string) ([]byte, bool, error) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, true, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.cache[cacheKey]; ok {
		return data, true, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	if data == nil {
		return nil, false, nil
	}

	s.cache[cacheKey] = data
	return data, true, nil
}

func (s *Store) get(bucket []byte, key string, dest interface{}) bool {
	data, ok, err := s.raw(bucket, key)
	if err != nil {
		slog.Error("failed to read cache", "bucket", string(bucket), "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		slog.Warn("ignoring malformed cache entry", "bucket", string(bucket), "key", key, "error", err)
		return false
	}
	return true
}

// set persists value, then swaps the memory copy so readers see old or new bytes, never a mix
func (s *Store) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			return b.Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) delete(bucket []byte, key string) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			if b != nil {
				return b.Delete([]byte(key))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()
	return nil
}

// === Profile slot ===

func (s *Store) ReadProfile() (*domain.Profile, bool, error) {
	data, ok, err := s.raw(bucketSession, keyProfile)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read profile: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var p domain.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	return &p, true, nil
}

func (s *Store) WriteProfile(profile domain.Profile) error {
	if err := s.set(bucketSession, keyProfile, profile); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

func (s *Store) ClearProfile() error {
	if err := s.delete(bucketSession, keyProfile); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

// === Catalog ===

func (s *Store) GetCatalog() ([]domain.CatalogItem, bool) {
	var items []domain.CatalogItem
	ok := s.get(bucketCatalog, keyItems, &items)
	return items, ok
}

func (s *Store) SaveCatalog(items []domain.CatalogItem, fetchedAt int64) error {
	if err := s.set(bucketCatalog, keyItems, items); err != nil {
		return err
	}
	// Save timestamp separately for freshness display
	return s.set(bucketCatalog, keyFetchedAt, fetchedAt)
}

// CatalogFetchedAt returns the unix time the cached catalog was saved
func (s *Store) CatalogFetchedAt() (int64, bool) {
	var ts int64
	ok := s.get(bucketCatalog, keyFetchedAt, &ts)
	return ts, ok
}

// InvalidateCatalog drops the offline catalog copy
func (s *Store) InvalidateCatalog() error {
	return errors.Join(
		s.delete(bucketCatalog, keyItems),
		s.delete(bucketCatalog, keyFetchedAt),
	)
}
