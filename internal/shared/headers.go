// Request headers captured from cURL commands.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ignoredHeaders are computed by the HTTP client and never copied from a capture.
var ignoredHeaders = map[string]bool{
	"host":              true,
	"content-length":    true,
	"accept-encoding":   true,
	"connection":        true,
	"transfer-encoding": true,
}

var (
	headerFlag = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	cookieFlag = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	agentFlag  = regexp.MustCompile(`(?:-A|--user-agent)\s+'([^']+)'|(?:-A|--user-agent)\s+"([^"]+)"`)
)

// RequestHeaders holds extra headers sent with every mirror request.
type RequestHeaders struct {
	Headers map[string]string
	Cookie  string
}

// LoadRequestHeaders reads a file holding a cURL command (e.g. copied from browser dev tools).
func LoadRequestHeaders(path string) (*RequestHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read headers file: %w", err)
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts -H, -A and -b values from a cURL command.
func ParseCurlCommand(data []byte) (*RequestHeaders, error) {
	cmd := strings.ReplaceAll(string(data), "\\\r\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")

	rh := &RequestHeaders{Headers: make(map[string]string)}

	for _, match := range headerFlag.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch lk := strings.ToLower(key); {
		case lk == "cookie":
			if rh.Cookie == "" {
				rh.Cookie = value
			}
		case ignoredHeaders[lk], key == "":
		default:
			rh.Headers[http.CanonicalHeaderKey(key)] = value
		}
	}

	if m := agentFlag.FindStringSubmatch(cmd); m != nil {
		rh.Headers["User-Agent"] = firstGroup(m)
	}
	if m := cookieFlag.FindStringSubmatch(cmd); m != nil {
		rh.Cookie = firstGroup(m)
	}

	if len(rh.Headers) == 0 && rh.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return rh, nil
}

// Apply sets the captured headers on h, overwriting existing values.
func (r *RequestHeaders) Apply(h http.Header) {
	if r == nil {
		return
	}
	for k, v := range r.Headers {
		h.Set(k, v)
	}
	if r.Cookie != "" {
		h.Set("Cookie", r.Cookie)
	}
}

// String renders the headers as sorted "Key: Value" lines.
func (r *RequestHeaders) String() string {
	var lines []string
	for key, value := range r.Headers {
		lines = append(lines, fmt.Sprintf("%s: %s", key, value))
	}
	sort.Strings(lines)
	if r.Cookie != "" {
		lines = append(lines, "Cookie: "+r.Cookie)
	}
	return strings.Join(lines, "\n")
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}
