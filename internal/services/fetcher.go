package services

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/lrcx/internal/session"
	"github.com/desertthunder/lrcx/internal/shared"
)

// FetcherOpts configures an [HTTPFetcher].
type FetcherOpts struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration // Per request (default: 10s)
	RateLimit float64       // Requests per second across all sessions (default: 10)
	Burst     int           // Limiter burst (default: 4)
	MaxBody   int64         // Response size cap (default: 1 MiB)
	Headers   *shared.RequestHeaders
	Logger    *log.Logger
}

// HTTPFetcher implements [session.Fetcher] over HTTP.
//
// Each request runs on its own goroutine. Failures of any kind (rate limiter, network,
// non-2xx status, truncated body) are reported as a reply with an empty body so the
// round still reaches its expected count.
type HTTPFetcher struct {
	client  *Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *log.Logger
	wg      sync.WaitGroup
}

// NewHTTPFetcher creates an [HTTPFetcher].
func NewHTTPFetcher(opts FetcherOpts) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 4
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &HTTPFetcher{
		client:  NewClient(opts.Client, opts.UserAgent, opts.MaxBody).WithHeaders(opts.Headers),
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// Fetch starts req in the background and submits the reply when it finishes.
func (f *HTTPFetcher) Fetch(ctx context.Context, sub session.Submitter, id session.ID, round int, req session.Request) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		body := f.get(ctx, req.URL)
		sub.Submit(id, session.Reply{Round: round, Body: body, Tag: req.Tag})
	}()
}

// Wait blocks until every started fetch has submitted its reply.
func (f *HTTPFetcher) Wait() {
	f.wg.Wait()
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) []byte {
	logger := shared.WithLogger(f.logger, "url", rawURL)

	if err := f.limiter.Wait(ctx); err != nil {
		logger.Debug("fetch cancelled while rate limited", "err", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	resp, err := f.client.Get(ctx, rawURL)
	if err != nil {
		logger.Warn("fetch failed", "err", err)
		return nil
	}
	logger.Debug("fetched", "status", resp.StatusCode, "bytes", len(resp.Body), "elapsed", time.Since(start))

	switch {
	case !resp.OK():
		logger.Warn("unexpected status", "status", resp.StatusCode)
		return nil
	case resp.Truncated:
		logger.Warn("response exceeded size limit")
		return nil
	}
	return resp.Body
}
