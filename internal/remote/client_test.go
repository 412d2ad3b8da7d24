package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/birdmeal/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/items" {
			t.Errorf("request = %s %s, want GET /items", r.Method, r.URL.Path)
		}
		w.Write([]byte(`[
			{"id":1,"name":"Millet","image":"millet.png","category":"Seeds","suitableFor":[{"birdName":"Finch"},{"birdName":"Canary"}]},
			{"id":2,"name":"Mealworms","image":"worms.png","category":"Insects","suitableFor":[]}
		]`))
	})

	items, err := c.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ImageRef != "millet.png" || !slices.Equal(items[0].BirdNames(), []string{"Finch", "Canary"}) {
		t.Fatalf("items[0] = %+v", items[0])
	}
	if items[1].ID != 2 || items[1].Category != "Insects" {
		t.Fatalf("items[1] = %+v", items[1])
	}
}

func TestFetchProfileByCredentials(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  domain.ProfileID
		wantErr error
	}{
		{name: "single match", body: `[{"id":4,"username":"tom","password":"pw","favorites":[3,1]}]`, wantID: 4},
		{name: "first of many", body: `[{"id":7,"username":"tom","password":"pw","favorites":[]},{"id":8,"username":"tom","password":"pw","favorites":[]}]`, wantID: 7},
		{name: "no match", body: `[]`, wantErr: domain.ErrNotFound},
		{name: "null favorites", body: `[{"id":5,"username":"tom","password":"pw","favorites":null}]`, wantID: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/profile" {
					t.Errorf("path = %q, want /profile", r.URL.Path)
				}
				if got := r.URL.Query().Get("username"); got != "tom" {
					t.Errorf("username = %q, want tom", got)
				}
				if got := r.URL.Query().Get("password"); got != "p&w" {
					t.Errorf("password = %q, want p&w", got)
				}
				w.Write([]byte(tt.body))
			})

			p, err := c.FetchProfileByCredentials(context.Background(), "tom", "p&w")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchProfileByCredentials returned error: %v", err)
			}
			if p.ID != tt.wantID {
				t.Fatalf("ID = %v, want %v", p.ID, tt.wantID)
			}
		})
	}
}

func TestFetchProfile_MultipleMatchesLogsDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"username":"a"},{"id":2,"username":"a"}]`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, time.Second, slog.New(slog.NewTextHandler(&buf, nil)))

	if _, err := c.FetchCanonicalProfile(context.Background(), "a", "b"); err != nil {
		t.Fatalf("FetchCanonicalProfile returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "multiple profiles matched") {
		t.Fatalf("log output %q lacks multiple-match diagnostic", buf.String())
	}
}

func TestPatchFavorites_SendsWholeSet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/profile/4" {
			t.Errorf("request = %s %s, want PATCH /profile/4", r.Method, r.URL.Path)
		}
		var body PatchFavoritesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if !slices.Equal(body.Favorites, []int64{1, 3, 5}) {
			t.Errorf("favorites = %v, want [1 3 5]", body.Favorites)
		}
		w.Write([]byte(`{"id":4,"username":"tom","password":"pw","favorites":[1,3,5]}`))
	})

	echo, err := c.PatchFavorites(context.Background(), 4, domain.NewFavoriteSet(5, 1, 3))
	if err != nil {
		t.Fatalf("PatchFavorites returned error: %v", err)
	}
	if echo == nil || !echo.Favorites.Equal(domain.NewFavoriteSet(1, 3, 5)) {
		t.Fatalf("echo = %+v, want favorites [1 3 5]", echo)
	}
}

func TestPatchFavorites_EmptySetEncodesAsArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"favorites":[]}` {
			t.Errorf("body = %s, want {\"favorites\":[]}", raw)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	echo, err := c.PatchFavorites(context.Background(), 1, domain.FavoriteSet{})
	if err != nil {
		t.Fatalf("PatchFavorites returned error: %v", err)
	}
	if echo != nil {
		t.Fatalf("echo = %+v, want nil for empty body", echo)
	}
}

func TestPatchFavorites_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such profile", http.StatusNotFound)
	})

	_, err := c.PatchFavorites(context.Background(), 99, domain.NewFavoriteSet(1))
	if !errors.Is(err, domain.ErrRemoteRejected) {
		t.Fatalf("err = %v, want ErrRemoteRejected", err)
	}
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	})

	if _, err := c.FetchItems(context.Background()); err != nil {
		t.Fatalf("FetchItems returned error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestDoRequest_ServerErrorsExhaustToNetworkError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := c.FetchItems(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if got := calls.Load(); got != maxRetries+1 {
		t.Fatalf("calls = %d, want %d", got, maxRetries+1)
	}
}

func TestDoRequest_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	c := NewClient(srv.URL, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.FetchProfileByCredentials(context.Background(), "a", "b")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestDoRequest_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil)
	_, err := c.FetchItems(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestDoRequest_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchItems(context.Background())
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
}
