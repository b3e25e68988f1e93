// Package httpx is the small JSON-over-HTTP client shared by vendor adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
	maxErrSnippet  = 256
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client rooted at baseURL. Requests are bounded by timeout even
// when the caller's context has no deadline.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// Call describes one request.
type Call struct {
	Method string
	Path   []string // segments, escaped and joined onto the base URL
	Query  url.Values
	Body   any
	Header http.Header
}

// Do sends call and decodes a 2xx JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	segs := make([]string, len(call.Path))
	for i, seg := range call.Path {
		segs[i] = url.PathEscape(seg)
	}

	u := c.base.JoinPath(segs...)
	if len(call.Query) > 0 {
		u.RawQuery = call.Query.Encode()
	}

	var body io.Reader

	if call.Body != nil {
		buf, err := json.Marshal(call.Body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}

		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, vs := range call.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		cerr := resp.Body.Close()
		if cerr != nil {
			slog.Debug("close response body", "error", cerr)
		}
	}()

	limited := io.LimitReader(resp.Body, maxBodyBytes)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(limited, maxErrSnippet))

		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, limited)

		return nil
	}

	err = json.NewDecoder(limited).Decode(out)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty response body")
		}

		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
