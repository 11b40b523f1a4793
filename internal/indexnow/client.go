// Package indexnow submits URL-changed notifications to an IndexNow endpoint.
package indexnow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/index-submitter/internal/metrics"
)

// DefaultEndpoint is the shared IndexNow ingestion endpoint.
const DefaultEndpoint = "https://api.indexnow.org/indexnow"

const maxErrorBody = 64 << 10

// Payload is the JSON body accepted by IndexNow.
type Payload struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation"`
	URLList     []string `json:"urlList"`
}

// Error is returned when IndexNow answers with a non-success status.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("indexnow status %d: %s", e.StatusCode, e.Message)
}

// Client posts payloads to an IndexNow endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// New creates a Client. An empty endpoint selects DefaultEndpoint.
func New(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{endpoint: endpoint, http: httpClient, logger: logger}
}

// Submit posts payload. Non-2xx responses yield *Error carrying the response's message field.
func (c *Client) Submit(ctx context.Context, payload Payload) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(metrics.ServiceIndexNow, err, time.Since(start))
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal indexnow payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build indexnow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post indexnow: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close indexnow response", zap.Error(cerr))
		}
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Info("urls submitted to indexnow",
			zap.String("host", payload.Host),
			zap.Int("urls", len(payload.URLList)),
			zap.Int("status", resp.StatusCode),
		)
		return nil
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		c.logger.Warn("read indexnow error body", zap.Error(readErr))
	}
	apiErr := &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	c.logger.Warn("indexnow rejected submission",
		zap.String("host", payload.Host),
		zap.Int("status", resp.StatusCode),
		zap.String("message", apiErr.Message),
	)
	return apiErr
}

// errorMessage extracts the "message" field from an IndexNow error body.
func errorMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(status)
}
