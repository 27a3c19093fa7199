package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"
)

// ============================================================
// HTTP helpers
// ============================================================

// apiError is the PostgREST error body.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s %s", e.Status, e.Code, e.Message)
}

// Postgres error codes raised by the schema functions.
const (
	codeUniqueViolation = "23505"
	codeNoDataFound     = "P0002"
	codeSerialization   = "40001"
)

// classify maps an error response to the storage sentinels. Client errors
// are marked permanent so they are neither retried nor counted by the breaker.
func classify(e *apiError) error {
	switch {
	case e.Code == codeUniqueViolation || e.Status == http.StatusConflict:
		return resilience.Permanent(fmt.Errorf("%w: %s", port.ErrDuplicate, e.Message))
	case e.Code == codeNoDataFound:
		return resilience.Permanent(fmt.Errorf("%w: %s", port.ErrNotFound, e.Message))
	case e.Code == codeSerialization:
		return resilience.Permanent(fmt.Errorf("%w: %s", port.ErrConflict, e.Message))
	case e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests && e.Status != http.StatusRequestTimeout:
		return resilience.Permanent(e)
	}
	return e
}

// doRequest executes an authenticated request to Supabase PostgREST.
// payload, when not nil, is sent as JSON.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any, prefer string) ([]byte, http.Header, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, resilience.Permanent(fmt.Errorf("encode payload: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, nil, resilience.Permanent(err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := readBody(resp)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		if apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return nil, nil, classify(apiErr)
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, resp.Header, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
