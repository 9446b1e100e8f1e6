package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"bizdash/internal/config"
)

type HTTPClient struct {
	client        *http.Client
	retryAttempts int
	backoffUnit   time.Duration
	logger        logrus.FieldLogger
}

func NewHTTPClient(cfg *config.Config, logger logrus.FieldLogger) *HTTPClient {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		retryAttempts: attempts,
		backoffUnit:   time.Second,
		logger:        logger,
	}
}

// PostExportData sends data as JSON with the given signature header. Server
// errors and transport failures are retried with quadratic backoff; client
// errors are returned immediately.
func (c *HTTPClient) PostExportData(ctx context.Context, url string, data interface{}, signature string) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal export data: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			backoffTime := time.Duration(attempt*attempt) * c.backoffUnit
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"backoff": backoffTime,
				"url":     url,
			}).Warn("Retrying request after backoff")

			select {
			case <-ctx.Done():
				return fmt.Errorf("export cancelled: %w", ctx.Err())
			case <-time.After(backoffTime):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create export request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Signature", signature)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.logger.WithFields(logrus.Fields{
				"attempt":     attempt + 1,
				"status_code": resp.StatusCode,
				"url":         url,
			}).Debug("Request successful")
			return nil
		}

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("client error: %d", resp.StatusCode)
		}

		lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
	}

	return fmt.Errorf("export failed after retries: %w", lastErr)
}
