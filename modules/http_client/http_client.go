// Package http_client provides the shared HTTP client used by modules that
// talk to remote services, and the response checks they have in common.
package http_client

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

// maxErrorBody is how much of a failed response body is kept in the error.
const maxErrorBody = 512

// New returns a client with pooled connections. A timeout of zero or less
// selects DefaultTimeout.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Close releases idle connections held by client.
func Close(client *http.Client) {
	if client != nil {
		client.CloseIdleConnections()
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s failed with status: %s", e.Method, e.URL, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// CheckResponse returns a *StatusError for a non-2xx response. The body is
// read for the message but not closed.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
