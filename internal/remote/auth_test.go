package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmcdole/birdmeal/internal/domain"
)

func newTestAuthFlow(input, password string, out io.Writer) *AuthFlow {
	return &AuthFlow{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		in:     strings.NewReader(input),
		out:    out,
		readPassword: func() ([]byte, error) {
			return []byte(password), nil
		},
	}
}

func TestAuthFlow_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("username") == "tom" && q.Get("password") == "secret" {
			w.Write([]byte(`[{"id":3,"username":"tom","password":"secret","favorites":[2]}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	res, err := newTestAuthFlow("tom\n", "secret", &out).Run(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Profile.ID != 3 || !res.Profile.Favorites.Has(2) {
		t.Fatalf("profile = %+v", res.Profile)
	}
	if !strings.Contains(out.String(), "Signed in as tom") {
		t.Fatalf("output %q lacks confirmation", out.String())
	}

	_, err = newTestAuthFlow("tom\n", "wrong", io.Discard).Run(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAuthFlow_EmptyUsername(t *testing.T) {
	_, err := newTestAuthFlow("\n", "x", io.Discard).Run(context.Background(), "http://127.0.0.1:0")
	if err == nil {
		t.Fatal("Run accepted an empty username")
	}
}
