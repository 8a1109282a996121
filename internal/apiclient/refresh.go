package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/taskboard/internal/apipaths"
)

// refreshKey names the single in-flight refresh shared by all waiters.
const refreshKey = "refresh"

// intercept drives the refresh protocol for a response that came back 401.
//
//	Initial --401--> Refreshing --ok--> Retrying --> Done
//	                 Refreshing --fail--> Failed
//
// Anything other than a first 401 passes through untouched.
func (c *Client) intercept(ctx context.Context, req Request, resp *Response, err error) (*Response, error) {
	if err == nil || !errors.Is(err, ErrUnauthorized) || req.Retried() {
		return resp, err
	}

	retry := req.Retry()
	c.logger.InfoContext(ctx, "apiclient: access token rejected, refreshing",
		"method", req.method,
		"path", req.path,
		"request_id", req.requestID,
	)

	token, err := c.refreshAccessToken(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, retry.WithBearer(token))
}

// refreshAccessToken returns a usable access token for replaying req. Callers
// that fail concurrently share one refresh call.
func (c *Client) refreshAccessToken(ctx context.Context, req Request) (string, error) {
	if token, done, err := c.rotatedToken(ctx, req); done {
		return token, err
	}

	// The shared refresh must not die with whichever caller started it
	flightCtx := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return c.refreshFlight(flightCtx, req)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.DebugContext(ctx, "apiclient: joined in-flight refresh", "request_id", req.requestID)
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", transportError(req, ctx.Err())
	}
}

// rotatedToken reports whether req can be settled without refreshing: the
// session moved on from the token req was sent with, either to a newer token
// or to nothing at all. Requests sent without a token always refresh.
func (c *Client) rotatedToken(ctx context.Context, req Request) (token string, done bool, err error) {
	if req.token == "" {
		return "", false, nil
	}
	switch current := c.session.AccessToken(); {
	case current == "":
		// The session ended while this request was in flight; it is not
		// revived and the user has already been sent to login.
		return "", true, &Error{
			Kind:    KindRefreshFailed,
			Method:  req.method,
			Path:    req.path,
			Message: "session ended",
		}
	case current != req.token:
		c.logger.DebugContext(ctx, "apiclient: token already rotated, replaying",
			"request_id", req.requestID,
		)
		return current, true, nil
	default:
		return "", false, nil
	}
}

// refreshFlight is the body of one shared refresh. A previous flight may
// have finished between the caller's check and the start of this one, so
// the session is checked again before calling the refresh endpoint.
func (c *Client) refreshFlight(ctx context.Context, req Request) (string, error) {
	if token, done, err := c.rotatedToken(ctx, req); done {
		return token, err
	}
	return c.runRefresh(ctx)
}

// runRefresh performs one refresh. On failure the session is terminated
// exactly once for this failure event, before any waiter sees the error.
func (c *Client) runRefresh(ctx context.Context) (string, error) {
	token, err := c.callRefresh(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "apiclient: refresh failed, ending session", "error", err)
		c.session.Terminate()
		return "", &Error{
			Kind:    KindRefreshFailed,
			Method:  http.MethodPost,
			Path:    apipaths.AuthRefresh,
			Message: "session refresh failed",
			Cause:   err,
		}
	}

	if err := c.session.Set(token); err != nil {
		// The token is still good for this process
		c.logger.WarnContext(ctx, "apiclient: failed to persist refreshed token", "error", err)
	}
	c.logger.InfoContext(ctx, "apiclient: access token refreshed")
	return token, nil
}

// callRefresh posts to the refresh endpoint with only the cookie jar as
// credential. It uses its own http.Client so it can never re-enter intercept.
func (c *Client) callRefresh(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(apipaths.AuthRefresh), strings.NewReader("{}"))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.refreshClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("refresh endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("refresh response missing accessToken")
	}
	return payload.AccessToken, nil
}
