package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// hopHeaders are stripped in both directions
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy forwards allowed navigations to the frontend and returns the response as-is
type Proxy struct {
	target    *url.URL
	transport http.RoundTripper
	logger    *slog.Logger
}

// NewProxy creates a proxy to the configured frontend
func NewProxy(cfg *Config, logger *slog.Logger) (*Proxy, error) {
	target, err := url.Parse(cfg.FrontendURL)
	if err != nil {
		return nil, err
	}
	return &Proxy{
		target:    target,
		transport: http.DefaultTransport,
		logger:    logger,
	}, nil
}

// ServeHTTP forwards the request with the same method, cleaned path, query and body
func (p *Proxy) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	outReq := req.Clone(req.Context())
	outReq.RequestURI = ""
	outReq.URL.Scheme = p.target.Scheme
	outReq.URL.Host = p.target.Host
	// Forward the path the guard judged, never the raw one
	if cleaned := CleanPath(req.URL.Path); cleaned != req.URL.Path {
		outReq.URL.Path = cleaned
		outReq.URL.RawPath = ""
	}
	outReq.URL.RawQuery = req.URL.RawQuery
	if req.ContentLength == 0 {
		outReq.Body = nil
	}
	for _, h := range hopHeaders {
		outReq.Header.Del(h)
	}

	// Keep only the original client IP so the chain cannot grow unbounded
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		if firstIP := strings.TrimSpace(strings.Split(xff, ",")[0]); firstIP != "" {
			outReq.Header.Set("X-Forwarded-For", firstIP)
		}
	}
	forwardedHost := req.Header.Get("X-Forwarded-Host")
	if forwardedHost == "" {
		forwardedHost = req.Host
	}
	outReq.Header.Set("X-Forwarded-Host", forwardedHost)
	outReq.Header.Set("X-Forwarded-Proto", requestScheme(req))
	outReq.Host = p.target.Host

	resp, err := p.transport.RoundTrip(outReq)
	if err != nil {
		// Client disconnect is normal; avoid noisy ERROR logs
		if errors.Is(err, context.Canceled) || errors.Is(req.Context().Err(), context.Canceled) {
			p.logger.DebugContext(req.Context(), "gateway: upstream request canceled by client",
				"path", req.URL.Path,
			)
		} else {
			p.logger.ErrorContext(req.Context(), "gateway: upstream request failed",
				"target", p.target.String(),
				"path", req.URL.Path,
				"error", err,
			)
		}
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, h := range hopHeaders {
		resp.Header.Del(h)
	}
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
