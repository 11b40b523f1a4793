package googleindex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/index-submitter/internal/metrics"
)

const maxResponseBody = 1 << 20

// BatchError is returned when the batch endpoint answers with a non-success status.
// Body is the raw response text.
type BatchError struct {
	StatusCode int
	Body       string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch status %d: %s", e.StatusCode, e.Body)
}

// Client posts batch bodies to the Indexing API.
type Client struct {
	endpoint string
	boundary string
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
	return &Client{endpoint: endpoint, boundary: Boundary, http: httpClient, logger: logger}
}

// Publish sends one URL_UPDATED notification per URL in a single batch request.
func (c *Client) Publish(ctx context.Context, token string, urls []string) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(metrics.ServiceGoogleIndexing, err, time.Since(start))
	}()

	body := BuildBatchBody(c.boundary, urls)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", ContentType(c.boundary))
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post batch: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close batch response", zap.Error(cerr))
		}
	}()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if readErr != nil {
			c.logger.Warn("read batch error body", zap.Error(readErr))
		}
		c.logger.Warn("batch request rejected",
			zap.Int("status", resp.StatusCode),
			zap.Int("urls", len(urls)),
		)
		return &BatchError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if readErr != nil {
		return fmt.Errorf("read batch response: %w", readErr)
	}
	c.logger.Info("urls submitted to google indexing api",
		zap.Int("urls", len(urls)),
		zap.Int("status", resp.StatusCode),
	)
	c.logger.Debug("batch response", zap.ByteString("body", raw))
	return nil
}
