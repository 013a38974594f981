package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxHTTPResponseBody caps the amount of response data read from remote
// collaborators to prevent memory exhaustion (10 MiB).
const maxHTTPResponseBody int64 = 10 << 20

// httpConfig is the per-route config parsed from the collaborators table.
type httpConfig struct {
	TimeoutMs   int64  `json:"timeout_ms"`
	ContentType string `json:"content_type"`
	MaxRetries  int    `json:"max_retries"`
	BackoffMs   int64  `json:"backoff_ms"`
}

// HTTPFactory creates Handlers that POST the payload to a remote HTTP
// endpoint. Per-route timeout, content-type and retry policy come from the
// config JSON column (timeout_ms, content_type, max_retries, backoff_ms).
// Endpoints are operator-configured, so validation stops at scheme and
// host sanity.
//
// Register it with:
//
//	router.RegisterTransport("http", services.HTTPFactory())
func HTTPFactory() TransportFactory {
	return func(endpoint string, config json.RawMessage) (Handler, func(), error) {
		if err := validateEndpoint(endpoint); err != nil {
			return nil, nil, fmt.Errorf("services/http: %w", err)
		}

		var cfg httpConfig
		if len(config) > 0 {
			_ = json.Unmarshal(config, &cfg)
		}

		timeout := 30 * time.Second
		if cfg.TimeoutMs > 0 {
			timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
		}

		contentType := "application/json"
		if cfg.ContentType != "" {
			contentType = cfg.ContentType
		}

		client := &http.Client{Timeout: timeout}

		handler := func(ctx context.Context, payload []byte) ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
			if err != nil {
				return nil, fmt.Errorf("services/http: create request: %w", err)
			}
			req.Header.Set("Content-Type", contentType)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("services/http: do request: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPResponseBody))
			if err != nil {
				return nil, fmt.Errorf("services/http: read response: %w", err)
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("services/http: status %d: %s", resp.StatusCode, body)
			}

			return body, nil
		}

		if cfg.MaxRetries > 0 {
			backoff := 250 * time.Millisecond
			if cfg.BackoffMs > 0 {
				backoff = time.Duration(cfg.BackoffMs) * time.Millisecond
			}
			handler = WithRetry(cfg.MaxRetries, backoff, nil)(handler)
		}

		closeFn := func() {
			client.CloseIdleConnections()
		}

		return handler, closeFn, nil
	}
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host")
	}
	return nil
}
