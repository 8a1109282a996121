package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a client failure.
type Kind string

const (
	KindTimeout       Kind = "TIMEOUT"
	KindTransport     Kind = "TRANSPORT"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindRefreshFailed Kind = "REFRESH_FAILED"
	KindApplication   Kind = "APPLICATION_ERROR"
)

// Error is returned for every failed call made through the Client
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int    // zero when no response was received
	Message    string // server-provided message when there is one
	Cause      error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Method != "" || e.Path != "" {
		msg += fmt.Sprintf(" %s %s", e.Method, e.Path)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by kind so callers can write errors.Is(err, ErrUnauthorized).
// A timeout also matches ErrTransport.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == KindTransport && e.Kind == KindTimeout {
		return true
	}
	return t.Kind == e.Kind
}

var (
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrTransport     = &Error{Kind: KindTransport}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrRefreshFailed = &Error{Kind: KindRefreshFailed}
	ErrApplication   = &Error{Kind: KindApplication}
)

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Message returns the server-provided message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func transportError(req Request, err error) *Error {
	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{
		Kind:   kind,
		Method: req.method,
		Path:   req.path,
		Cause:  err,
	}
}

func statusError(req Request, resp *Response) *Error {
	kind := KindApplication
	if resp.StatusCode == http.StatusUnauthorized {
		kind = KindUnauthorized
	}
	msg := serverMessage(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{
		Kind:       kind,
		Method:     req.method,
		Path:       req.path,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
