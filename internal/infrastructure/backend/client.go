// Package backend is the authenticated HTTP client for the marketplace API.
//
// Every call performs exactly one network round trip: no retries, no token
// refresh and no caching happen at this layer. The bearer token is taken from
// the session carried on the request context.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/pkg/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Options controls client construction.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements the authenticated request pipeline.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New returns a Client. An empty BaseURL is accepted; every call then fails
// with domain.ErrBackendNotConfigured before any I/O.
func New(opts Options, log zerolog.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		log:     log,
	}
}

// requestConfig holds per-call overrides.
type requestConfig struct {
	bearer    string
	hasBearer bool
	query     url.Values
}

// RequestOption customises a single Request call.
type RequestOption func(*requestConfig)

// WithBearer sends token instead of the session's access token.
func WithBearer(token string) RequestOption {
	return func(rc *requestConfig) {
		rc.bearer = token
		rc.hasBearer = true
	}
}

// WithQuery appends query parameters to the request URL.
func WithQuery(q url.Values) RequestOption {
	return func(rc *requestConfig) { rc.query = q }
}

// errorEnvelope is the subset of the backend's response envelope read on failure.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Request performs method on path, JSON-encoding body when non-nil and
// decoding a 2xx response into out when non-nil.
func (c *Client) Request(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var rc requestConfig
	for _, opt := range opts {
		opt(&rc)
	}

	status, raw, err := c.roundTrip(ctx, method, path, body, rc)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		apiErr := failure(status, raw)
		metrics.UpstreamRequestsTotal.WithLabelValues(method, string(apiErr.Kind)).Inc()
		c.log.Debug().Int("status", status).Str("method", method).Str("path", path).Msg("backend returned error")
		return apiErr
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(method, "ok").Inc()
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.APIError{Kind: domain.KindServer, Status: status, Message: "invalid response body", Err: err}
	}
	return nil
}

// roundTrip sends exactly one request and returns the status and body. Only
// transport failures are reported as errors.
func (c *Client) roundTrip(ctx context.Context, method, path string, body any, rc requestConfig) (int, []byte, error) {
	if c.baseURL == "" {
		return 0, nil, domain.ErrBackendNotConfigured
	}

	req, err := c.newRequest(ctx, method, path, body, rc)
	if err != nil {
		return 0, nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, string(domain.KindNetwork)).Inc()
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend unreachable")
		return 0, nil, &domain.APIError{Kind: domain.KindNetwork, Message: "Unable to reach the server", Err: err}
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(method, string(domain.KindNetwork)).Inc()
		return 0, nil, &domain.APIError{Kind: domain.KindNetwork, Status: resp.StatusCode, Message: "Unable to read server response", Err: err}
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, rc requestConfig) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(rc.query) > 0 {
		target += "?" + rc.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	switch {
	case rc.hasBearer:
		if rc.bearer != "" {
			req.Header.Set("Authorization", "Bearer "+rc.bearer)
		}
	default:
		if s, ok := domain.SessionFromContext(ctx); ok && s.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+s.AccessToken)
		} else {
			c.log.Warn().Str("method", method).Str("path", path).Msg("no token in session")
		}
	}
	return req, nil
}

// failure maps a non-2xx response to an APIError, keeping the server's
// message when the body carries one.
func failure(status int, raw []byte) *domain.APIError {
	var env errorEnvelope
	msg := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		msg = strings.TrimSpace(env.Message)
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}

	kind := domain.KindServer
	if status == http.StatusUnauthorized {
		kind = domain.KindUnauthorized
	}
	return &domain.APIError{Kind: kind, Status: status, Message: msg}
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
