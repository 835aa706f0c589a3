// Package apiclient is the request client every storefront component talks to
// the backend through. It attaches the bearer credential, decodes JSON and
// turns non-2xx responses into *RequestError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MikeMC777/storefront/internal/log"
)

// TokenSource supplies the bearer credential. An empty token means the
// request is sent anonymously.
type TokenSource interface {
	Token() string
}

// Doer is the transport; *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks JSON to the storefront API.
type Client struct {
	base   string
	http   Doer
	tokens TokenSource
	log    zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithTimeout sets a client-wide timeout on the default transport. Zero keeps
// requests bounded only by their context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithTokenSource attaches the session's credential to every call.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New returns a client for the API rooted at base (e.g. http://host/api).
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{},
		log:  log.WithComponent("apiclient"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.base }

// Get decodes the response of GET path?q into out.
func (c *Client) Get(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, out)
}

// GetRaw returns the undecoded body of GET path?q.
func (c *Client) GetRaw(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Post sends body as JSON and decodes the response into out (may be nil).
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the response into out (may be nil).
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues DELETE path and decodes the response into out (may be nil).
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Method: method, Path: path, Err: err}
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	rid := uuid.NewString()
	req.Header.Set("X-Request-ID", rid)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("rid", rid).Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return &RequestError{Method: method, Path: path, Err: err}
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		c.log.Debug().Str("rid", rid).Str("method", method).Str("path", path).Err(err).Msg("reading body failed")
		return &RequestError{Method: method, Path: path, Err: fmt.Errorf("read body (HTTP %d): %w", res.StatusCode, err)}
	}
	c.log.Debug().
		Str("rid", rid).
		Str("method", method).
		Str("path", path).
		Int("status", res.StatusCode).
		Dur("dur", time.Since(start)).
		Msg("request")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RequestError{Method: method, Path: path, Status: res.StatusCode, Message: messageFrom(payload)}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], payload...)
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &ParseError{Path: path, Reason: "unexpected response body", Err: err}
	}
	return nil
}

func messageFrom(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return DefaultMessage
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Error != "":
		return body.Error
	default:
		return DefaultMessage
	}
}

// IsStatus reports whether err is a *RequestError with the given status.
func IsStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == status
}

// API is the surface the storefront components depend on.
type API interface {
	Get(ctx context.Context, path string, q url.Values, out any) error
	GetRaw(ctx context.Context, path string, q url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

var _ API = (*Client)(nil)
