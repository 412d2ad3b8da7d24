package domain

import (
	"context"
)

// ProfileRepository performs the remote operations against the record of truth
type ProfileRepository interface {
	// FetchProfileByCredentials returns the profile matching the credentials.
	// Returns ErrNotFound when nothing matches. When several profiles match,
	// the first one is authoritative.
	FetchProfileByCredentials(ctx context.Context, username, secret string) (*Profile, error)

	// PatchFavorites replaces the remote favorite set wholesale.
	// The returned profile is the server's echo of the update.
	PatchFavorites(ctx context.Context, profileID ProfileID, favorites FavoriteSet) (*Profile, error)

	// FetchCanonicalProfile re-derives the full profile after a patch
	FetchCanonicalProfile(ctx context.Context, username, secret string) (*Profile, error)
}

// CatalogRepository provides access to the remote catalog
type CatalogRepository interface {
	// FetchItems returns every catalog item
	FetchItems(ctx context.Context) ([]CatalogItem, error)
}

// AuthResult contains the result of a successful login
type AuthResult struct {
	Profile *Profile
}

// AuthFlow defines an interactive login against the remote server.
// Implementations handle their own user interaction (prompting for credentials, etc.)
type AuthFlow interface {
	Run(ctx context.Context, serverURL string) (*AuthResult, error)
}
