package domain

// ProfileCache is the single-slot persisted mirror of the last known profile.
// Writes are full overwrites; readers never observe a partially written profile.
type ProfileCache interface {
	// ReadProfile returns the cached profile. ok is false when the slot is empty.
	// A malformed document yields ErrSerialization.
	ReadProfile() (profile *Profile, ok bool, err error)
	WriteProfile(profile Profile) error
	ClearProfile() error
}

// CatalogCache keeps the last fetched catalog for offline startup
type CatalogCache interface {
	GetCatalog() ([]CatalogItem, bool)
	SaveCatalog(items []CatalogItem, fetchedAt int64) error
	// CatalogFetchedAt returns the unix time of the saved copy
	CatalogFetchedAt() (int64, bool)
	InvalidateCatalog() error
}

// Store handles local persistence (BoltDB + memory)
type Store interface {
	ProfileCache
	CatalogCache
	Close() error
}
