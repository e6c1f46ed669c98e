// Package downstream implements the HTTP clients for the gateway's two
// collaborator services. Responses are treated as opaque JSON; the only
// interpretation applied is status classification into the error taxonomy.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/pulsefit/gateway/pkg/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client is a bounded-timeout JSON HTTP client for one collaborator.
type Client struct {
	service string
	base    string
	http    *http.Client
}

// New creates a client for the named service. The timeout bounds the whole
// request including body read; zero uses the default.
func New(service, baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s base url %q", service, baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		service: service,
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// do performs one request and maps failures onto DownstreamError. Bodies of
// failed responses are read for the Detail field (logging only) but never
// surfaced to clients.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s request encode: %w", c.service, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s request build: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.DownstreamError{Service: c.service, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.DownstreamError{Service: c.service, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return json.RawMessage(raw), nil
	}

	return nil, &domain.DownstreamError{
		Service: c.service,
		Status:  resp.StatusCode,
		Detail:  errorDetail(raw),
	}
}

// errorDetail lifts a human-readable message out of an opaque error body
// for the logs. The body shape is not part of any contract.
func errorDetail(raw []byte) string {
	for _, key := range []string{"error", "message", "detail"} {
		if v := gjson.GetBytes(raw, key); v.Exists() {
			return v.String()
		}
	}
	s := string(raw)
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}
