// Package httpstore reads the worker status record from the worker's own
// health endpoint instead of a shared file.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/interfaces"
)

const maxRecordBytes = 1 << 20

// StatusClient queries GET {baseURL}/status
type StatusClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewStatusClient creates a client with the given request timeout.
// A non-empty token is sent as a bearer token.
func NewStatusClient(baseURL, token string, timeout time.Duration) *StatusClient {
	return &StatusClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Read fetches the record. An unreachable endpoint counts as "no record".
func (c *StatusClient) Read(ctx context.Context) (*interfaces.StatusSnapshot, error) {
	url := c.baseURL + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s unreachable: %v", interfaces.ErrStatusNotFound, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %s rejected the status token", interfaces.ErrStatusUnreadable, url)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrStatusNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", interfaces.ErrStatusUnreadable, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", interfaces.ErrStatusUnreadable, err)
	}

	record, err := model.DecodeStatusRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrStatusUnreadable, err)
	}

	return &interfaces.StatusSnapshot{Record: record}, nil
}
