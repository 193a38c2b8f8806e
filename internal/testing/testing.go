// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/session"
)

// FetchCall records one [MockFetcher.Fetch] invocation
type FetchCall struct {
	Session session.ID
	Round   int
	Request session.Request
}

// MockFetcher is a test double for [session.Fetcher].
//
// Bodies are looked up in Responses by URL unless Handler is set. Replies are submitted
// synchronously unless Async is true.
type MockFetcher struct {
	Responses map[string][]byte
	Handler   func(round int, req session.Request) []byte
	Async     bool

	mu    sync.Mutex
	calls []FetchCall
}

func (m *MockFetcher) Fetch(ctx context.Context, sub session.Submitter, id session.ID, round int, req session.Request) {
	m.mu.Lock()
	m.calls = append(m.calls, FetchCall{Session: id, Round: round, Request: req})
	var body []byte
	if m.Handler != nil {
		body = m.Handler(round, req)
	} else {
		body = m.Responses[req.URL]
	}
	m.mu.Unlock()

	reply := session.Reply{Round: round, Body: body, Tag: req.Tag}
	if m.Async {
		go sub.Submit(id, reply)
		return
	}
	sub.Submit(id, reply)
}

// Calls returns every recorded fetch, optionally filtered to a round (0 means all)
func (m *MockFetcher) Calls(round int) []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []FetchCall
	for _, c := range m.calls {
		if round == 0 || c.Round == round {
			out = append(out, c)
		}
	}
	return out
}

// MockPersister is a test double for ttplayer.Persister that records accepted payloads
type MockPersister struct {
	Err error

	mu     sync.Mutex
	stored []models.Lyrics
}

func (m *MockPersister) Persist(ctx context.Context, lyrics models.Lyrics) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, lyrics)
	return nil
}

// Stored returns a copy of the persisted payloads
func (m *MockPersister) Stored() []models.Lyrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Lyrics(nil), m.stored...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
