package fetcher

import (
	"log/slog"
	"time"

	"resty.dev/v3"
)

// BrowserUserAgent is sent by adapters that read public web pages
const BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewHTTPClient creates the HTTP client shared by one adapter.
// Requests are never retried: a failed call is final for that resolution and
// the resolver falls back to the next source instead. A zero timeout leaves
// the transport default in place.
func NewHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		AddResponseMiddleware(logResponse)

	if baseURL != "" {
		client.SetBaseURL(baseURL)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return client
}

// logResponse logs every completed request for observability
func logResponse(_ *resty.Client, r *resty.Response) error {
	slog.Debug("upstream response",
		"method", r.Request.Method,
		"url", r.Request.URL,
		"status_code", r.StatusCode())
	return nil
}
