package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteClient talks to the hosted Postgres REST endpoint that mirrors the
// local records. Rows are upserted in bulk per table; the remote resolves
// conflicts on primary key.
type RemoteClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRemoteClient(baseURL, apiKey string) *RemoteClient {
	return &RemoteClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// UpsertRows POSTs a batch of rows to /rest/v1/{table} with merge-duplicates
// semantics. rows must marshal to a JSON array.
func (c *RemoteClient) UpsertRows(ctx context.Context, table string, rows interface{}) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("sync: marshal %s rows: %w", table, err)
	}

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sync: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync: remote unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sync: remote returned %d for %s: %s", resp.StatusCode, table, detail)
	}
	return nil
}
