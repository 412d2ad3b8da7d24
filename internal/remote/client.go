package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/birdmeal/internal/domain"
)

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 2
	baseRetryDelay = 250 * time.Millisecond
)

var (
	_ domain.ProfileRepository = (*Client)(nil)
	_ domain.CatalogRepository = (*Client)(nil)
)

// Client talks to the profile/catalog HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new API client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the normalized server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request against the API and returns the body of a 2xx response.
// Retries with exponential backoff on 5xx server errors.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, networkError(ctx.Err())
		}

		// Wait before retry (exponential backoff)
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 250ms, 500ms
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "path", path)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, networkError(ctx.Err())
			}
		}

		var body io.Reader
		if bodyBytes != nil {
			body = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug("api request", "method", method, "path", path, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("api request failed", "method", method, "path", path, "error", err)
			return nil, networkError(err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, networkError(fmt.Errorf("failed to read response: %w", err))
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, domain.ErrAuthFailed
		}

		// Retry on 5xx server errors
		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			lastErr = fmt.Errorf("%w: server error %d", domain.ErrNetwork, resp.StatusCode)
			c.logger.Warn("api server error, will retry",
				"status", resp.StatusCode,
				"body", string(respBody),
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.logger.Error("api request rejected", "status", resp.StatusCode, "path", path, "body", string(respBody))
			return nil, fmt.Errorf("%w: status %d", domain.ErrRemoteRejected, resp.StatusCode)
		}

		return respBody, nil
	}

	c.logger.Error("api request failed after retries", "error", lastErr, "method", method, "path", path)
	return nil, lastErr
}

// networkError maps transport failures and timeouts to domain.ErrNetwork
func networkError(err error) error {
	if errors.Is(err, domain.ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
}

// FetchItems returns the whole catalog
func (c *Client) FetchItems(ctx context.Context) ([]domain.CatalogItem, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/items", nil, nil)
	if err != nil {
		return nil, err
	}

	var items []ItemDTO
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}

	return MapItems(items), nil
}

// FetchProfileByCredentials looks up the profile matching username and secret
func (c *Client) FetchProfileByCredentials(ctx context.Context, username, secret string) (*domain.Profile, error) {
	return c.lookupProfile(ctx, username, secret)
}

// FetchCanonicalProfile re-reads the profile from the server after a patch
func (c *Client) FetchCanonicalProfile(ctx context.Context, username, secret string) (*domain.Profile, error) {
	return c.lookupProfile(ctx, username, secret)
}

// lookupProfile queries /profile by credentials. The endpoint returns a list;
// the first element is authoritative.
func (c *Client) lookupProfile(ctx context.Context, username, secret string) (*domain.Profile, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("password", secret)

	body, err := c.doRequest(ctx, http.MethodGet, "/profile", query, nil)
	if err != nil {
		return nil, err
	}

	var profiles []ProfileDTO
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}

	switch {
	case len(profiles) == 0:
		return nil, domain.ErrNotFound
	case len(profiles) > 1:
		ids := make([]int64, len(profiles))
		for i, p := range profiles {
			ids[i] = p.ID
		}
		c.logger.Warn("multiple profiles matched credentials, using first",
			"username", username,
			"count", len(profiles),
			"profileIDs", ids,
		)
	}

	p := MapProfile(profiles[0])
	return &p, nil
}

// PatchFavorites replaces the favorite set of a profile
func (c *Client) PatchFavorites(ctx context.Context, profileID domain.ProfileID, favorites domain.FavoriteSet) (*domain.Profile, error) {
	path := "/profile/" + url.PathEscape(profileID.String())
	body, err := c.doRequest(ctx, http.MethodPatch, path, nil, PatchFavoritesRequest{Favorites: toWireIDs(favorites)})
	if err != nil {
		return nil, err
	}

	// An empty body is a valid acknowledgement
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var echo ProfileDTO
	if err := json.Unmarshal(body, &echo); err != nil {
		c.logger.Warn("unparseable patch response", "profileID", profileID, "error", err)
		return nil, nil
	}
	p := MapProfile(echo)
	return &p, nil
}
