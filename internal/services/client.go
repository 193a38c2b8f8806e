// HTTP client used for provider mirror requests
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/lrcx/internal/shared"
)

const (
	DefaultUserAgent    = "Mozilla/4.0 (compatible; MSIE 6.0; Windows NT 5.1)"
	DefaultMaxBodyBytes = 1 << 20
)

// Client performs GET requests against lyric provider mirrors.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
	headers    *shared.RequestHeaders
}

// NewClient creates a new [Client]. A nil client uses [http.DefaultClient].
func NewClient(client *http.Client, userAgent string, maxBody int64) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &Client{
		httpClient: client,
		userAgent:  userAgent,
		maxBody:    maxBody,
	}
}

// WithHeaders sends h with every request. Captured values win over the configured user agent.
func (c *Client) WithHeaders(h *shared.RequestHeaders) *Client {
	c.headers = h
	return c
}

// Response represents a raw mirror response with status and body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Truncated  bool
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request for rawURL and returns the raw response.
//
// Bodies larger than the client's limit are cut off and flagged as truncated.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrProviderRequest, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	c.headers.Apply(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrProviderRequest, err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}
	if int64(len(body)) > c.maxBody {
		out.Body = body[:c.maxBody]
		out.Truncated = true
	}
	return out, nil
}
