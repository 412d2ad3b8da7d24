package domain

import (
	"encoding/json"
	"slices"
	"strconv"
)

// ItemID identifies a catalog item on the remote server
type ItemID int64

func (id ItemID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ProfileID identifies a profile record on the remote server
type ProfileID int64

func (id ProfileID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// SuitabilityEntry names a bird a catalog item is suitable for
type SuitabilityEntry struct {
	BirdName string `json:"birdName"`
}

// CatalogItem is a single food in the catalog.
// Items are immutable once fetched and live for the whole session.
type CatalogItem struct {
	ID          ItemID             `json:"id"`
	Name        string             `json:"name"`
	ImageRef    string             `json:"image"`
	Category    string             `json:"category"`
	Suitability []SuitabilityEntry `json:"suitableFor"`
}

// BirdNames returns the names of all birds the item is suitable for
func (c CatalogItem) BirdNames() []string {
	names := make([]string, 0, len(c.Suitability))
	for _, s := range c.Suitability {
		names = append(names, s.BirdName)
	}
	return names
}

// Profile is the user record that owns a favorite set.
// The authoritative copy lives on the remote server; the local cache holds a mirror.
type Profile struct {
	ID        ProfileID   `json:"id"`
	Username  string      `json:"username"`
	Secret    string      `json:"password"`
	Favorites FavoriteSet `json:"favorites"`
}

// WithFavorites returns a copy of the profile carrying the given favorite set
func (p Profile) WithFavorites(set FavoriteSet) Profile {
	p.Favorites = set
	return p
}

// FavoriteSet is an immutable set of item identifiers.
// The zero value is the empty set. Mutating methods return a new set.
type FavoriteSet struct {
	ids map[ItemID]struct{}
}

// NewFavoriteSet builds a set from ids, dropping duplicates
func NewFavoriteSet(ids ...ItemID) FavoriteSet {
	if len(ids) == 0 {
		return FavoriteSet{}
	}
	m := make(map[ItemID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return FavoriteSet{ids: m}
}

// Has reports whether id is in the set
func (s FavoriteSet) Has(id ItemID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids in the set
func (s FavoriteSet) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether the set has no ids
func (s FavoriteSet) IsEmpty() bool {
	return len(s.ids) == 0
}

// With returns a new set containing id. Adding a present id yields an equal set.
func (s FavoriteSet) With(id ItemID) FavoriteSet {
	m := make(map[ItemID]struct{}, len(s.ids)+1)
	for k := range s.ids {
		m[k] = struct{}{}
	}
	m[id] = struct{}{}
	return FavoriteSet{ids: m}
}

// Without returns a new set that does not contain id
func (s FavoriteSet) Without(id ItemID) FavoriteSet {
	if len(s.ids) == 0 {
		return FavoriteSet{}
	}
	m := make(map[ItemID]struct{}, len(s.ids))
	for k := range s.ids {
		if k != id {
			m[k] = struct{}{}
		}
	}
	return FavoriteSet{ids: m}
}

// IDs returns the ids in ascending order
func (s FavoriteSet) IDs() []ItemID {
	ids := make([]ItemID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Equal reports whether both sets hold the same ids
func (s FavoriteSet) Equal(other FavoriteSet) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array
func (s FavoriteSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes an array of ids; null decodes to the empty set
func (s *FavoriteSet) UnmarshalJSON(data []byte) error {
	var ids []ItemID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewFavoriteSet(ids...)
	return nil
}
