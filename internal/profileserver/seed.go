package profileserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmcdole/birdmeal/internal/remote"
)

// SeedProfile is a profile entry of a seed file
type SeedProfile struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Favorites []int64 `json:"favorites"`
}

// Seed is the JSON document loaded into an empty database
type Seed struct {
	Items    []remote.ItemDTO `json:"items"`
	Profiles []SeedProfile    `json:"profiles"`
}

// LoadSeed reads a seed document from path
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var s Seed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return &s, nil
}

// Apply upserts the catalog and creates the seed profiles when no profile exists yet
func (s *Seed) Apply(repo *Repository, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := repo.UpsertItems(s.Items); err != nil {
		return err
	}

	n, err := repo.CountProfiles()
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("profiles present, skipping seed profiles", "count", n)
		return nil
	}
	for _, p := range s.Profiles {
		if _, err := repo.CreateProfile(p.Username, p.Password, p.Favorites); err != nil {
			return err
		}
	}
	logger.Info("seeded database", "items", len(s.Items), "profiles", len(s.Profiles))
	return nil
}
