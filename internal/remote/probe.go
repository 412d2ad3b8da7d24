package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/birdmeal/internal/domain"
)

const probeTimeout = 10 * time.Second

// Probe checks that serverURL speaks the catalog API.
// It returns the number of catalog items the server reports.
func Probe(ctx context.Context, serverURL string) (int, error) {
	serverURL = strings.TrimRight(serverURL, "/")

	client := &http.Client{
		Timeout: probeTimeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/items", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: unexpected status %d from /items", domain.ErrRemoteRejected, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, networkError(err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return 0, fmt.Errorf("%w: /items is not a JSON array: %w", domain.ErrSerialization, err)
	}
	return len(items), nil
}
