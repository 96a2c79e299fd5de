// Package directory talks to the remote user directory endpoint.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NameParam is the query parameter the endpoint filters on.
const NameParam = "name"

// statusOK is the only status text treated as success.
const statusOK = "OK"

// Observer receives one event per request.
type Observer interface {
	OnRequest(ctx context.Context, params Params, status string, err error, dur time.Duration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, params Params, status string, err error, dur time.Duration)

// OnRequest implements Observer.
func (f ObserverFunc) OnRequest(ctx context.Context, params Params, status string, err error, dur time.Duration) {
	if f == nil {
		return
	}
	f(ctx, params, status, err, dur)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver attaches a request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client lists users from the directory endpoint. It performs exactly one
// request per call and caches nothing.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
}

// NewClient returns a client for baseURL. An empty baseURL is accepted here and
// reported as a ConfigurationError when the first request is built.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSpace(baseURL),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches the users matching params.
func (c *Client) List(ctx context.Context, params Params) ([]User, error) {
	start := time.Now()
	users, status, err := c.list(ctx, params)
	if c.observer != nil {
		c.observer.OnRequest(ctx, params, status, err, time.Since(start))
	}
	return users, err
}

func (c *Client) list(ctx context.Context, params Params) ([]User, string, error) {
	req, err := c.newRequest(ctx, params)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("directory: request: %w", err)
	}
	defer resp.Body.Close()

	text := statusText(resp)
	if text != statusOK {
		return nil, text, &FetchError{StatusCode: resp.StatusCode, StatusText: text}
	}
	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, text, &ParseError{Err: err}
	}
	return users, text, nil
}

func (c *Client) newRequest(ctx context.Context, params Params) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, &ConfigurationError{Reason: "empty base url"}
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("base url %q is not absolute", c.baseURL)}
	}
	if params.Name != "" {
		q := u.Query()
		q.Set(NameParam, params.Name)
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// statusText extracts the reason phrase from a status line such as "200 OK".
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode)
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, prefix))
}
