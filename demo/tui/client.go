package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ServiceClient is a thin HTTP client for the ingestion service API
type ServiceClient struct {
	baseURL string
	client  *http.Client
}

// NewServiceClient creates a new ingestion service client
func NewServiceClient(baseURL string) *ServiceClient {
	return &ServiceClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetStatus fetches the current pipeline status
func (c *ServiceClient) GetStatus() (*StatusResponse, error) {
	resp, err := c.client.Get(c.baseURL + "/api/ingestion/status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &status, nil
}

// RunIngestion triggers an ingestion pass. force discards the dedup
// history first, so every upstream item is treated as new.
func (c *ServiceClient) RunIngestion(force bool) error {
	url := c.baseURL + "/api/ingestion/run"
	if force {
		url += "?force=true"
	}

	resp, err := c.client.Post(url, "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		return fmt.Errorf("failed to trigger ingestion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// GetRecentArticles fetches the latest ingested articles
func (c *ServiceClient) GetRecentArticles(limit int) ([]Article, error) {
	resp, err := c.client.Get(fmt.Sprintf("%s/api/articles/recent?limit=%d", c.baseURL, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Count    int       `json:"count"`
		Articles []Article `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return payload.Articles, nil
}
