package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Directory resolves user ids to display names via the identity service.
type Directory struct {
	baseURL string
	client  *http.Client
}

func NewDirectory(baseURL string, timeout time.Duration) *Directory {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Directory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *Directory) DisplayName(ctx context.Context, userID string) (string, error) {
	url := fmt.Sprintf("%s/api/users/%s", d.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build identity request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode identity response: %w", err)
	}
	if body.Name == "" {
		return "", fmt.Errorf("identity service returned empty name for %s", userID)
	}
	return body.Name, nil
}
