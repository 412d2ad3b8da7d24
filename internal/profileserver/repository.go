package profileserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mmcdole/birdmeal/internal/remote"
)

// ErrProfileNotFound is returned when a profile id does not exist
var ErrProfileNotFound = errors.New("profile not found")

type itemRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Image       string `db:"image"`
	Category    string `db:"category"`
	SuitableFor string `db:"suitable_for"`
}

type profileRow struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	Password  string `db:"password"`
	Favorites string `db:"favorites"`
}

// Repository stores the catalog and profiles
type Repository struct {
	dbConn *sqlx.DB
}

// NewRepository wraps an open database
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{dbConn: db}
}

// Close terminates the database connection.
func (repo *Repository) Close() error {
	if err := repo.dbConn.Close(); err != nil {
		return fmt.Errorf("closing repo: %w", err)
	}
	return nil
}

// ListItems returns the catalog ordered by id
func (repo *Repository) ListItems() ([]remote.ItemDTO, error) {
	var rows []itemRow
	if err := repo.dbConn.Select(&rows, `SELECT id, name, image, category, suitable_for FROM items ORDER BY id`); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items := make([]remote.ItemDTO, 0, len(rows))
	for _, r := range rows {
		it := remote.ItemDTO{ID: r.ID, Name: r.Name, Image: r.Image, Category: r.Category}
		if err := json.Unmarshal([]byte(r.SuitableFor), &it.SuitableFor); err != nil {
			return nil, fmt.Errorf("decoding suitability of item %d: %w", r.ID, err)
		}
		if it.SuitableFor == nil {
			it.SuitableFor = []remote.SuitabilityDTO{}
		}
		items = append(items, it)
	}
	return items, nil
}

// UpsertItems inserts or replaces catalog items
func (repo *Repository) UpsertItems(items []remote.ItemDTO) error {
	tx, err := repo.dbConn.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO items (id, name, image, category, suitable_for)
		VALUES (:id, :name, :image, :category, :suitable_for)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, image = excluded.image,
			category = excluded.category, suitable_for = excluded.suitable_for`

	for _, it := range items {
		suit := it.SuitableFor
		if suit == nil {
			suit = []remote.SuitabilityDTO{}
		}
		encoded, err := json.Marshal(suit)
		if err != nil {
			return fmt.Errorf("encoding suitability of item %d: %w", it.ID, err)
		}
		row := itemRow{ID: it.ID, Name: it.Name, Image: it.Image, Category: it.Category, SuitableFor: string(encoded)}
		if _, err := tx.NamedExec(query, row); err != nil {
			return fmt.Errorf("upserting item %d: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// CreateProfile inserts a profile and returns its id
func (repo *Repository) CreateProfile(username, password string, favorites []int64) (int64, error) {
	encoded, err := encodeFavorites(favorites)
	if err != nil {
		return 0, err
	}
	res, err := repo.dbConn.Exec(`INSERT INTO profiles (username, password, favorites) VALUES (?, ?, ?)`, username, password, encoded)
	if err != nil {
		return 0, fmt.Errorf("creating profile %s: %w", username, err)
	}
	return res.LastInsertId()
}

// CountProfiles returns the number of stored profiles
func (repo *Repository) CountProfiles() (int, error) {
	var n int
	if err := repo.dbConn.Get(&n, `SELECT COUNT(*) FROM profiles`); err != nil {
		return 0, fmt.Errorf("counting profiles: %w", err)
	}
	return n, nil
}

// FindProfiles returns every profile matching the credentials, oldest first
func (repo *Repository) FindProfiles(username, password string) ([]remote.ProfileDTO, error) {
	var rows []profileRow
	err := repo.dbConn.Select(&rows,
		`SELECT id, username, password, favorites FROM profiles WHERE username = ? AND password = ? ORDER BY id`,
		username, password)
	if err != nil {
		return nil, fmt.Errorf("finding profiles: %w", err)
	}

	out := make([]remote.ProfileDTO, 0, len(rows))
	for _, r := range rows {
		p, err := r.toDTO()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdateFavorites replaces the favorites of a profile and returns the updated profile
func (repo *Repository) UpdateFavorites(id int64, favorites []int64) (remote.ProfileDTO, error) {
	encoded, err := encodeFavorites(favorites)
	if err != nil {
		return remote.ProfileDTO{}, err
	}

	res, err := repo.dbConn.Exec(`UPDATE profiles SET favorites = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return remote.ProfileDTO{}, fmt.Errorf("updating favorites of %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return remote.ProfileDTO{}, ErrProfileNotFound
	}

	var row profileRow
	err = repo.dbConn.Get(&row, `SELECT id, username, password, favorites FROM profiles WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return remote.ProfileDTO{}, ErrProfileNotFound
	}
	if err != nil {
		return remote.ProfileDTO{}, fmt.Errorf("reading profile %d: %w", id, err)
	}
	return row.toDTO()
}

func (r profileRow) toDTO() (remote.ProfileDTO, error) {
	p := remote.ProfileDTO{ID: r.ID, Username: r.Username, Password: r.Password}
	if err := json.Unmarshal([]byte(r.Favorites), &p.Favorites); err != nil {
		return remote.ProfileDTO{}, fmt.Errorf("decoding favorites of profile %d: %w", r.ID, err)
	}
	if p.Favorites == nil {
		p.Favorites = []int64{}
	}
	return p, nil
}

func encodeFavorites(favorites []int64) (string, error) {
	if favorites == nil {
		favorites = []int64{}
	}
	encoded, err := json.Marshal(favorites)
	if err != nil {
		return "", fmt.Errorf("encoding favorites: %w", err)
	}
	return string(encoded), nil
}
