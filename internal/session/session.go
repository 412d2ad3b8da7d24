package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/birdmeal/internal/domain"
)

// Service manages the signed-in profile
type Service struct {
	remote domain.ProfileRepository
	store  domain.Store
	logger *slog.Logger
}

// NewService creates a new session service
func NewService(remote domain.ProfileRepository, store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{remote: remote, store: store, logger: logger}
}

// Login looks up the profile matching the credentials and caches it
func (s *Service) Login(ctx context.Context, username, secret string) (*domain.Profile, error) {
	profile, err := s.remote.FetchProfileByCredentials(ctx, username, secret)
	if err != nil {
		s.logger.Error("login failed", "username", username, "error", err)
		return nil, err
	}
	if err := s.Adopt(*profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Adopt caches a profile obtained by an interactive login flow
func (s *Service) Adopt(profile domain.Profile) error {
	if err := s.store.WriteProfile(profile); err != nil {
		s.logger.Error("failed to cache profile", "profileID", profile.ID, "error", err)
		return err
	}
	s.logger.Info("signed in", "profileID", profile.ID, "favorites", profile.Favorites.Len())
	return nil
}

// Resume returns the cached profile from a previous run.
// A malformed cache slot is cleared and reported as ErrSerialization.
// Other read errors are returned with the slot left in place.
func (s *Service) Resume() (*domain.Profile, bool, error) {
	profile, ok, err := s.store.ReadProfile()
	if err != nil && !errors.Is(err, domain.ErrSerialization) {
		s.logger.Error("failed to read cached profile", "error", err)
		return nil, false, err
	}
	if err != nil {
		s.logger.Warn("cached profile unreadable, clearing", "error", err)
		if clearErr := s.store.ClearProfile(); clearErr != nil {
			return nil, false, errors.Join(err, clearErr)
		}
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	s.logger.Debug("resumed session", "profileID", profile.ID)
	return profile, true, nil
}

// Writer is a component that writes the profile slot while signed in.
// Close must stop it and wait for its pending writes.
type Writer interface {
	Close()
}

// Logout stops writer, then clears the cached profile and the offline
// catalog copy. writer may be nil when nothing else holds the slot.
func (s *Service) Logout(writer Writer) error {
	if writer != nil {
		writer.Close()
	}
	if err := s.store.ClearProfile(); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	if err := s.store.InvalidateCatalog(); err != nil {
		s.logger.Warn("failed to drop offline catalog", "error", err)
	}
	s.logger.Info("signed out")
	return nil
}
