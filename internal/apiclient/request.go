package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Request describes one logical call. It is immutable: Retry and WithBearer
// return modified copies, so the single-retry marker can only be set by
// producing a new descriptor.
type Request struct {
	method    string
	path      string
	query     url.Values
	body      []byte
	header    http.Header
	requestID string
	token     string // access token the request was sent with
	retried   bool
}

// RequestOption customizes a Request at construction.
type RequestOption func(*Request)

// WithQuery sets the query string.
func WithQuery(q url.Values) RequestOption {
	return func(r *Request) {
		r.query = cloneValues(q)
	}
}

// WithHeader sets a per-call header; it wins over the client defaults.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		r.header.Set(key, value)
	}
}

// NewRequest builds a descriptor. A non-nil body is JSON-encoded once here so
// the same bytes can be replayed; []byte bodies are sent untouched.
func NewRequest(method, path string, body any, opts ...RequestOption) (Request, error) {
	r := Request{
		method:    method,
		path:      path,
		header:    make(http.Header),
		requestID: uuid.NewString(),
	}

	switch b := body.(type) {
	case nil:
	case []byte:
		r.body = append([]byte(nil), b...)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return Request{}, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r.body = data
	}

	for _, opt := range opts {
		opt(&r)
	}
	return r, nil
}

func (r Request) Method() string    { return r.method }
func (r Request) Path() string      { return r.path }
func (r Request) RequestID() string { return r.requestID }
func (r Request) Retried() bool     { return r.retried }

// Header returns a copy of the per-call headers.
func (r Request) Header() http.Header { return r.header.Clone() }

// Retry returns the already-attempted form of r.
func (r Request) Retry() Request {
	next := r.clone()
	next.retried = true
	return next
}

// WithBearer returns r authorized with token.
func (r Request) WithBearer(token string) Request {
	next := r.clone()
	next.header.Set("Authorization", "Bearer "+token)
	next.token = token
	return next
}

func (r Request) hasAuthorization() bool {
	return r.header.Get("Authorization") != ""
}

func (r Request) clone() Request {
	next := r
	next.header = r.header.Clone()
	next.query = cloneValues(r.query)
	return next
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vv := range v {
		out[k] = append([]string(nil), vv...)
	}
	return out
}
