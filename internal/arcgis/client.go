// Package arcgis queries the SFMTA parking blockface layer of an ArcGIS
// MapServer.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	common "github.com/bobmcallan/sfpark-mcp/internal/common"
)

// DefaultURL is the SFMTA blockface layer query endpoint.
const DefaultURL = "https://services.sfmta.com/arcgis/rest/services/Parking/sfpark_ODS/MapServer/4/query"

const (
	// DefaultTimeout bounds each upstream call.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxResponseSize caps the response body read from the service.
	DefaultMaxResponseSize = 50 << 20 // 50MB
)

// baseParams are sent with every query. Caller parameters with the same key
// replace them.
var baseParams = map[string]string{
	"f":              "json",
	"outFields":      "*",
	"returnGeometry": "false",
	"outSR":          "4326",
}

// Client performs spatial queries against the fixed ArcGIS endpoint.
// It is safe for concurrent use.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	logger          *common.Logger
	maxResponseSize int64
	userAgent       string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxResponseSize caps how many bytes of a response body are read.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every query.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the given query endpoint. An empty baseURL
// selects DefaultURL and a nil logger discards output.
func NewClient(baseURL string, logger *common.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:          logger,
		maxResponseSize: DefaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured query endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// BuildURL merges params over the base parameter set and returns the full
// request URL.
func (c *Client) BuildURL(params url.Values) string {
	q := url.Values{}
	for k, v := range baseParams {
		q.Set(k, v)
	}
	for k, vals := range params {
		q.Del(k)
		for _, v := range vals {
			q.Add(k, v)
		}
	}
	return c.baseURL + "?" + q.Encode()
}

// Query performs exactly one GET with the merged parameters and returns the
// JSON body unmodified. Failures are returned as *Error and never retried.
func (c *Client) Query(ctx context.Context, params url.Values) (json.RawMessage, error) {
	reqURL := c.BuildURL(params)
	c.logger.Debug().Str("method", "GET").Str("url", reqURL).Msg("arcgis request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error().Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("arcgis request failed")
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Int("bytes", len(body)).Msg("arcgis response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, Status: resp.StatusCode}
	}

	if !json.Valid(body) {
		return nil, &Error{Kind: KindDecode, Err: fmt.Errorf("response is not valid JSON (%d bytes)", len(body))}
	}

	return json.RawMessage(body), nil
}
