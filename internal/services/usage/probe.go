// Package usage provides the usage tracking and reconciliation engine.
package usage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/j-veylop/stylist-chat-tui/internal/logger"
	"github.com/j-veylop/stylist-chat-tui/internal/models"
)

const statusEndpoint = "/api/v1/rate-limit-status"

// maxStatusResponseBytes caps the status body read.
const maxStatusResponseBytes = 1 << 20

// fetchStatus issues one GET to the rate-limit status endpoint. It is a single
// best-effort attempt: any transport error, non-2xx response, or decode failure
// returns nil. No retries, no backoff.
func (s *Service) fetchStatus() *models.ServerStatus {
	url := s.config.BaseURL + statusEndpoint

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		logger.Debug("failed to create status request", "error", err)
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Debug("status probe failed", "error", err)
		return nil
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusResponseBytes))
	if err != nil {
		logger.Debug("failed to read status response", "error", err)
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("status probe returned error", "status", resp.StatusCode)
		return nil
	}

	var status models.ServerStatus
	if err := json.Unmarshal(body, &status); err != nil {
		logger.Debug("failed to parse status response", "error", err)
		return nil
	}

	return &status
}
