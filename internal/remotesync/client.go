// Package remotesync pushes and pulls the habit collection to a habitlit
// server. There is no merge: a pull replaces local data.
package remotesync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
)

// SyncPath is served by the habitlit API
const SyncPath = "/api/sync"

// ErrUnauthorized is returned for 401 and 403 responses
var ErrUnauthorized = errors.New("sync server rejected the token")

// PushRequest is the body of POST /api/sync
type PushRequest struct {
	Habits   []models.Habit `json:"habits"`
	LastSync *time.Time     `json:"lastSync,omitempty"`
}

// Ack acknowledges a push
type Ack struct {
	ServerTimestamp time.Time `json:"serverTimestamp"`
	Count           int       `json:"count"`
}

// Snapshot is the body of GET /api/sync
type Snapshot struct {
	Habits    []models.Habit `json:"habits"`
	Timestamp time.Time      `json:"timestamp"`
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Push uploads the full collection
func (c *Client) Push(ctx context.Context, habits []models.Habit, lastSync *time.Time) (Ack, error) {
	if habits == nil {
		habits = []models.Habit{}
	}
	body, err := json.Marshal(PushRequest{Habits: habits, LastSync: lastSync})
	if err != nil {
		return Ack{}, fmt.Errorf("failed to encode push: %w", err)
	}

	var ack Ack
	if err := c.do(ctx, http.MethodPost, bytes.NewReader(body), &ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

// Pull downloads the collection last pushed to the server
func (c *Client) Pull(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := c.do(ctx, http.MethodGet, nil, &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.Habits == nil {
		snap.Habits = []models.Habit{}
	}
	return snap, nil
}

func (c *Client) do(ctx context.Context, method string, body io.Reader, out interface{}) error {
	if c.BaseURL == "" {
		return errors.New("sync url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+SyncPath, body)
	if err != nil {
		return fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sync server returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode sync response: %w", err)
	}
	return nil
}
