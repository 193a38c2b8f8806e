package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/lrcx/internal/session"
	"github.com/desertthunder/lrcx/internal/shared"
	tu "github.com/desertthunder/lrcx/internal/testing"
)

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom Client", func(t *testing.T) {
			customClient := &http.Client{}
			c := NewClient(customClient, "agent", 10)

			if c.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
			if c.userAgent != "agent" || c.maxBody != 10 {
				t.Errorf("unexpected settings: %q %d", c.userAgent, c.maxBody)
			}
		})

		t.Run("With Defaults", func(t *testing.T) {
			c := NewClient(nil, "", 0)

			if c.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
			if c.userAgent != DefaultUserAgent {
				t.Errorf("expected default user agent, got %s", c.userAgent)
			}
			if c.maxBody != DefaultMaxBodyBytes {
				t.Errorf("expected default body limit, got %d", c.maxBody)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Sends User Agent And Query", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.Header.Get("User-Agent") != "lrcx-test" {
					t.Errorf("expected user agent 'lrcx-test', got %s", r.Header.Get("User-Agent"))
				}
				if r.URL.RawQuery != "sh?Artist=7400&Title=&Flags=0" {
					t.Errorf("unexpected query %q", r.URL.RawQuery)
				}
				w.Write([]byte("<result/>"))
			}))
			defer server.Close()

			c := NewClient(nil, "lrcx-test", 0)
			resp, err := c.Get(context.Background(), server.URL+"/dll/lyricsvr.dll?sh?Artist=7400&Title=&Flags=0")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() || string(resp.Body) != "<result/>" {
				t.Errorf("unexpected response: %d %q", resp.StatusCode, resp.Body)
			}
		})

		t.Run("Applies Captured Headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != "captured" {
					t.Errorf("expected captured user agent, got %s", r.Header.Get("User-Agent"))
				}
				if r.Header.Get("Referer") != "http://ttlrccnc.qianqian.com/" {
					t.Errorf("expected referer header, got %q", r.Header.Get("Referer"))
				}
				if r.Header.Get("Cookie") != "sid=1" {
					t.Errorf("expected cookie, got %q", r.Header.Get("Cookie"))
				}
			}))
			defer server.Close()

			headers := &shared.RequestHeaders{
				Headers: map[string]string{"User-Agent": "captured", "Referer": "http://ttlrccnc.qianqian.com/"},
				Cookie:  "sid=1",
			}
			if _, err := NewClient(nil, "configured", 0).WithHeaders(headers).Get(context.Background(), server.URL); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Non-2xx Status Is Not An Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			resp, err := NewClient(nil, "", 0).Get(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.OK() {
				t.Error("expected non-OK response")
			}
		})

		t.Run("Truncates Large Bodies", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(strings.Repeat("x", 64)))
			}))
			defer server.Close()

			resp, err := NewClient(nil, "", 16).Get(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.Truncated || len(resp.Body) != 16 {
				t.Errorf("expected truncated 16 byte body, got %v %d", resp.Truncated, len(resp.Body))
			}
		})

		t.Run("Transport Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			_, err := NewClient(client, "", 0).Get(context.Background(), "http://mirror.invalid")
			if !errors.Is(err, shared.ErrProviderRequest) {
				t.Errorf("expected ErrProviderRequest, got %v", err)
			}
		})

		t.Run("Body Read Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)}
			_, err := NewClient(client, "", 0).Get(context.Background(), "http://mirror.invalid")
			if !errors.Is(err, shared.ErrProviderRequest) {
				t.Errorf("expected ErrProviderRequest, got %v", err)
			}
		})

		t.Run("Invalid URL", func(t *testing.T) {
			_, err := NewClient(nil, "", 0).Get(context.Background(), "://bad")
			if !errors.Is(err, shared.ErrProviderRequest) {
				t.Errorf("expected ErrProviderRequest, got %v", err)
			}
		})
	})
}

// collector is a [session.Submitter] that stores every reply.
type collector struct {
	mu      sync.Mutex
	replies map[session.ID][]session.Reply
}

func (c *collector) Submit(id session.ID, reply session.Reply) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replies == nil {
		c.replies = make(map[session.ID][]session.Reply)
	}
	c.replies[id] = append(c.replies[id], reply)
	return true
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("[00:01.00]line"))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte("late"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	t.Run("Reports Bodies With Tags", func(t *testing.T) {
		sub := &collector{}
		f := NewHTTPFetcher(FetcherOpts{RateLimit: 100})
		f.Fetch(context.Background(), sub, "s", 2, session.Request{URL: server.URL + "/ok", Tag: "candidate"})
		f.Wait()

		got := sub.replies["s"]
		if len(got) != 1 {
			t.Fatalf("expected 1 reply, got %d", len(got))
		}
		if got[0].Round != 2 || got[0].Tag != "candidate" || string(got[0].Body) != "[00:01.00]line" {
			t.Errorf("unexpected reply %+v", got[0])
		}
	})

	t.Run("Failures Become Empty Replies", func(t *testing.T) {
		sub := &collector{}
		f := NewHTTPFetcher(FetcherOpts{RateLimit: 100, Timeout: 50 * time.Millisecond})
		for _, path := range []string{"/missing", "/slow"} {
			f.Fetch(context.Background(), sub, "s", 1, session.Request{URL: server.URL + path})
		}
		f.Fetch(context.Background(), sub, "s", 1, session.Request{URL: "http://127.0.0.1:1/unreachable"})
		f.Wait()

		got := sub.replies["s"]
		if len(got) != 3 {
			t.Fatalf("expected 3 replies, got %d", len(got))
		}
		for _, r := range got {
			if len(r.Body) != 0 {
				t.Errorf("expected empty body, got %q", r.Body)
			}
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		sub := &collector{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := NewHTTPFetcher(FetcherOpts{})
		f.Fetch(ctx, sub, "s", 1, session.Request{URL: server.URL + "/ok"})
		f.Wait()

		if got := sub.replies["s"]; len(got) != 1 || len(got[0].Body) != 0 {
			t.Errorf("expected one empty reply, got %+v", got)
		}
	})
}
