package apiclient

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
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taskboard/internal/session"
)

const (
	DefaultBaseURL = "http://localhost:5001/"
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 10 << 20 // 10MB
)

// Config holds HTTP client core configuration
type Config struct {
	BaseURL        string
	Timeout        time.Duration // hard ceiling for each network call
	DefaultHeaders http.Header   // merged under per-call headers
	// SendCredentials attaches the session cookie jar to every call,
	// including cross-origin ones.
	SendCredentials bool
	Transport       http.RoundTripper // nil uses http.DefaultTransport
}

// DefaultConfig returns the configuration the task board uses.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		Timeout:         DefaultTimeout,
		DefaultHeaders:  http.Header{"Content-Type": []string{"application/json"}},
		SendCredentials: true,
	}
}

// Response is a fully-read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Client is the authenticated API client. Every call goes through the
// refresh interceptor before its result reaches the caller.
type Client struct {
	baseURL        string
	timeout        time.Duration
	defaultHeaders http.Header
	httpClient     *http.Client
	refreshClient  *http.Client // never routed through the interceptor
	session        *session.Manager
	refreshGroup   singleflight.Group
	logger         *slog.Logger
}

// New creates a client bound to a session manager.
func New(cfg Config, sess *session.Manager, logger *slog.Logger) (*Client, error) {
	if sess == nil {
		return nil, errors.New("apiclient: session manager is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	var jar http.CookieJar
	if cfg.SendCredentials {
		jar = sess.Jar()
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		timeout:        cfg.Timeout,
		defaultHeaders: cfg.DefaultHeaders.Clone(),
		httpClient:     &http.Client{Transport: transport, Jar: jar},
		refreshClient:  &http.Client{Transport: transport, Jar: sess.Jar()},
		session:        sess,
		logger:         logger,
	}, nil
}

// Session returns the manager the client reads tokens from.
func (c *Client) Session() *session.Manager {
	return c.session
}

// Do sends a request and returns its response, recovering once from an
// expired access token.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	req, err := NewRequest(method, path, body, opts...)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, req)
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// send is the normal client path: authorize, execute, intercept.
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	req = c.authorize(req)
	resp, err := c.roundTrip(ctx, req)
	return c.intercept(ctx, req, resp, err)
}

// authorize attaches the current access token unless the request already
// carries an Authorization header.
func (c *Client) authorize(req Request) Request {
	if req.hasAuthorization() {
		return req
	}
	if token := c.session.AccessToken(); token != "" {
		return req.WithBearer(token)
	}
	return req
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: req.method, Path: req.path, Cause: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.DebugContext(ctx, "apiclient: request failed",
			"method", req.method,
			"path", req.path,
			"request_id", req.requestID,
			"error", err,
		)
		return nil, transportError(req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(req, err)
	}

	c.logger.DebugContext(ctx, "apiclient: response received",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"request_id", req.requestID,
		"retried", req.retried,
		"duration", time.Since(start),
	)

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(req, out)
	}
	return out, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.endpoint(req.path)
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vv := range c.defaultHeaders {
		httpReq.Header[k] = append([]string(nil), vv...)
	}
	for k, vv := range req.header {
		httpReq.Header[k] = append([]string(nil), vv...)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("X-Request-ID", req.requestID)
	return httpReq, nil
}

// endpoint joins the base URL and path the way the browser client did:
// exactly one slash between them.
func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// serverMessage pulls a human-readable message out of an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	// Partial decodes are fine; only the string fields matter
	_ = json.Unmarshal(body, &payload)
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
