// Package coredump implements a terminal inspector for a running host
// harness: it polls the metrics endpoint, renders buffered events as a
// scrolling log, and can snapshot the buffer to a gzip-compressed file for
// later inspection.
package coredump

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Event mirrors one entry drained from a harness's metrics buffer.
type Event struct {
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields"`
}

// Client polls a hostharness instance's /v1/metrics endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client against a hostharness listen address.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type metricsResponse struct {
	Events []Event `json:"events"`
}

// Poll fetches and drains whatever events the harness has buffered since the
// last poll.
func (c *Client) Poll() ([]Event, error) {
	resp, err := c.http.Get(c.baseURL + "/v1/metrics")
	if err != nil {
		return nil, fmt.Errorf("coredump: poll metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coredump: poll metrics: unexpected status %d", resp.StatusCode)
	}

	var decoded metricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("coredump: decode metrics response: %w", err)
	}
	return decoded.Events, nil
}
