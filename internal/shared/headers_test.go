package shared

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single quoted header",
			curlCmd:     `curl -H 'Referer: http://ttplayer.qianqian.com/' http://ttlrccnc.qianqian.com/dll/lyricsvr.dll`,
			wantHeaders: map[string]string{"Referer": "http://ttplayer.qianqian.com/"},
		},
		{
			name:        "double quoted long flag",
			curlCmd:     `curl --header "x-forwarded-for: 10.0.0.1" http://example.com`,
			wantHeaders: map[string]string{"X-Forwarded-For": "10.0.0.1"},
		},
		{
			name: "line continuations and ignored headers",
			curlCmd: "curl 'http://example.com' \\\n  -H 'Host: example.com' \\\n  -H 'Accept: */*' \\\n  -H 'Accept-Encoding: gzip'",
			wantHeaders: map[string]string{"Accept": "*/*"},
		},
		{
			name:        "user agent flag",
			curlCmd:     `curl -A 'TTPlayer/5.0' http://example.com`,
			wantHeaders: map[string]string{"User-Agent": "TTPlayer/5.0"},
		},
		{
			name:        "cookie header",
			curlCmd:     `curl -H 'Cookie: a=1; b=2' http://example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "a=1; b=2",
		},
		{
			name:        "cookie flag wins over header",
			curlCmd:     `curl -H 'Cookie: a=1' -b 'c=3' http://example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "c=3",
		},
		{name: "no headers", curlCmd: `curl http://example.com`, wantErr: true},
		{name: "malformed header", curlCmd: `curl -H 'no-colon' http://example.com`, wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCurlCommand([]byte(tc.curlCmd))
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseCurlCommand() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCurlCommand() unexpected error = %v", err)
			}
			if len(got.Headers) != len(tc.wantHeaders) {
				t.Errorf("got %d headers (%v), want %d", len(got.Headers), got.Headers, len(tc.wantHeaders))
			}
			for k, v := range tc.wantHeaders {
				if got.Headers[k] != v {
					t.Errorf("header %s = %q, want %q", k, got.Headers[k], v)
				}
			}
			if got.Cookie != tc.wantCookie {
				t.Errorf("cookie = %q, want %q", got.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	t.Run("Apply", func(t *testing.T) {
		rh := &RequestHeaders{Headers: map[string]string{"Referer": "r"}, Cookie: "k=v"}
		h := http.Header{}
		h.Set("Referer", "old")
		rh.Apply(h)

		if h.Get("Referer") != "r" || h.Get("Cookie") != "k=v" {
			t.Errorf("unexpected headers %v", h)
		}

		var empty *RequestHeaders
		empty.Apply(h)
	})

	t.Run("String", func(t *testing.T) {
		rh := &RequestHeaders{Headers: map[string]string{"B": "2", "A": "1"}, Cookie: "c=3"}
		if got, want := rh.String(), "A: 1\nB: 2\nCookie: c=3"; got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	})

	t.Run("LoadRequestHeaders", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "headers.sh")
		if err := os.WriteFile(path, []byte(`curl -H 'Referer: x' http://example.com`), 0644); err != nil {
			t.Fatal(err)
		}
		rh, err := LoadRequestHeaders(path)
		if err != nil || rh.Headers["Referer"] != "x" {
			t.Errorf("LoadRequestHeaders() = %v, %v", rh, err)
		}
		if _, err := LoadRequestHeaders(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
