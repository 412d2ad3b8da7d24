package profileserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/favorites"
	"github.com/mmcdole/birdmeal/internal/remote"
	"github.com/mmcdole/birdmeal/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startTestServer(t *testing.T) (*httptest.Server, *Repository) {
	t.Helper()
	repo := setupTestRepo(t)
	if err := testSeed.Apply(repo, quietLogger()); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	srv := httptest.NewServer(NewServer(repo, NewMetrics(), quietLogger()))
	t.Cleanup(srv.Close)
	return srv, repo
}

func TestServer_ClientRoundTrip(t *testing.T) {
	srv, _ := startTestServer(t)
	client := remote.NewClient(srv.URL, 2*time.Second, quietLogger())
	ctx := context.Background()

	items, err := client.FetchItems(ctx)
	if err != nil {
		t.Fatalf("FetchItems() failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("len(items) = %d, want 4", len(items))
	}

	p, err := client.FetchProfileByCredentials(ctx, "tom", "pw")
	if err != nil {
		t.Fatalf("FetchProfileByCredentials() failed: %v", err)
	}
	if !p.Favorites.Equal(domain.NewFavoriteSet(1, 3)) {
		t.Fatalf("favorites = %v, want [1 3]", p.Favorites.IDs())
	}

	if _, err := client.FetchProfileByCredentials(ctx, "tom", "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown credentials err = %v, want ErrNotFound", err)
	}

	echo, err := client.PatchFavorites(ctx, p.ID, domain.NewFavoriteSet(4))
	if err != nil {
		t.Fatalf("PatchFavorites() failed: %v", err)
	}
	if echo == nil || !echo.Favorites.Equal(domain.NewFavoriteSet(4)) {
		t.Fatalf("echo = %+v, want favorites [4]", echo)
	}

	if _, err := client.PatchFavorites(ctx, 999, domain.NewFavoriteSet(1)); !errors.Is(err, domain.ErrRemoteRejected) {
		t.Fatalf("patch unknown profile err = %v, want ErrRemoteRejected", err)
	}
}

func TestServer_DuplicateCredentialsReturnAll(t *testing.T) {
	srv, repo := startTestServer(t)
	if _, err := repo.CreateProfile("tom", "pw", []int64{2}); err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}

	client := remote.NewClient(srv.URL, time.Second, quietLogger())
	p, err := client.FetchProfileByCredentials(context.Background(), "tom", "pw")
	if err != nil {
		t.Fatalf("FetchProfileByCredentials() failed: %v", err)
	}
	// First (oldest) match is authoritative
	if !p.Favorites.Equal(domain.NewFavoriteSet(1, 3)) {
		t.Fatalf("favorites = %v, want the first profile's [1 3]", p.Favorites.IDs())
	}
}

func TestServer_PatchValidation(t *testing.T) {
	srv, _ := startTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"non-numeric id", "/profile/abc", `{"favorites":[1]}`, http.StatusBadRequest},
		{"missing favorites", "/profile/1", `{}`, http.StatusBadRequest},
		{"not json", "/profile/1", `favorites`, http.StatusBadRequest},
		{"ok", "/profile/1", `{"favorites":[]}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPatch, srv.URL+tt.path, strings.NewReader(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := startTestServer(t)

	if resp, err := http.Get(srv.URL + "/items"); err == nil {
		resp.Body.Close()
	}
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `birdmeal_http_requests_total{code="200",method="get",route="/items"} 1`) {
		t.Fatalf("metrics output lacks /items counter:\n%s", body)
	}
}

func TestCoordinator_AgainstServer(t *testing.T) {
	srv, _ := startTestServer(t)
	client := remote.NewClient(srv.URL, 2*time.Second, quietLogger())
	ctx := context.Background()

	cache, err := store.New(t.TempDir(), srv.URL)
	if err != nil {
		t.Fatalf("store.New() failed: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	profile, err := client.FetchProfileByCredentials(ctx, "tom", "pw")
	if err != nil {
		t.Fatalf("FetchProfileByCredentials() failed: %v", err)
	}
	coord := favorites.NewCoordinator(*profile, client, cache, favorites.Options{CallTimeout: 2 * time.Second}, quietLogger())
	t.Cleanup(coord.Close)

	items, err := client.FetchItems(ctx)
	if err != nil {
		t.Fatalf("FetchItems() failed: %v", err)
	}

	res, err := coord.Mutate(ctx, domain.Toggle(2))
	if err != nil {
		t.Fatalf("Mutate() failed: %v", err)
	}
	if res.State != domain.SyncCommitted {
		t.Fatalf("state = %v, want committed", res.State)
	}

	var got []domain.ItemID
	for _, it := range favorites.Project(items, coord.Favorites()) {
		got = append(got, it.ID)
	}
	if !slices.Equal(got, []domain.ItemID{1, 2, 3}) {
		t.Fatalf("projection = %v, want [1 2 3]", got)
	}

	cached, ok, err := cache.ReadProfile()
	if err != nil || !ok {
		t.Fatalf("ReadProfile = ok %v err %v", ok, err)
	}
	if !cached.Favorites.Equal(domain.NewFavoriteSet(1, 2, 3)) {
		t.Fatalf("cached favorites = %v, want [1 2 3]", cached.Favorites.IDs())
	}
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	doc := `{"items":[{"id":7,"name":"Peanuts","image":"","category":"Nuts","suitableFor":[{"birdName":"Jay"}]}],
		"profiles":[{"username":"ann","password":"x","favorites":[7]}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed() failed: %v", err)
	}
	if len(seed.Items) != 1 || seed.Items[0].SuitableFor[0].BirdName != "Jay" {
		t.Fatalf("seed items = %+v", seed.Items)
	}
	if len(seed.Profiles) != 1 || !slices.Equal(seed.Profiles[0].Favorites, []int64{7}) {
		t.Fatalf("seed profiles = %+v", seed.Profiles)
	}
}
