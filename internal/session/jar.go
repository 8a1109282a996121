package session

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar is the credential-bearing transport of a session: an RFC 6265 cookie
// jar that also remembers what it was given, so the session manager can
// snapshot, restore and wipe it.
type Jar struct {
	mu       sync.Mutex
	base     *url.URL
	inner    *cookiejar.Jar
	tracked  map[string]*http.Cookie // name|path -> last cookie set
	onChange func()
}

// NewJar creates an empty jar scoped to the API base URL.
func NewJar(baseURL string) (*Jar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	inner, err := newCookieJar()
	if err != nil {
		return nil, err
	}
	return &Jar{
		base:    base,
		inner:   inner,
		tracked: make(map[string]*http.Cookie),
	}, nil
}

func newCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}

	j.mu.Lock()
	j.inner.SetCookies(u, cookies)
	now := time.Now()
	for _, c := range cookies {
		key := c.Name + "|" + c.Path
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(j.tracked, key)
			continue
		}
		j.tracked[key] = absoluteExpiry(c, now)
	}
	onChange := j.onChange
	j.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Value returns the value of a live cookie by name, or "" if none is held.
func (j *Jar) Value(name string) string {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for _, c := range j.tracked {
		if c.Name != name || c.Value == "" {
			continue
		}
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		return c.Value
	}
	return ""
}

// Snapshot copies every live cookie the jar has been given.
func (j *Jar) Snapshot() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	out := make([]*http.Cookie, 0, len(j.tracked))
	for _, c := range j.tracked {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out
}

// Restore loads cookies previously taken with Snapshot. It does not fire the
// change hook.
func (j *Jar) Restore(cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cp := absoluteExpiry(c, now)
		restored = append(restored, cp)
		j.tracked[c.Name+"|"+c.Path] = cp
	}
	j.inner.SetCookies(j.base, restored)
}

// absoluteExpiry copies c with a positive Max-Age turned into an Expires
// time, so a persisted cookie keeps its original deadline.
func absoluteExpiry(c *http.Cookie, now time.Time) *http.Cookie {
	cp := *c
	if cp.MaxAge > 0 {
		cp.Expires = now.Add(time.Duration(cp.MaxAge) * time.Second)
		cp.MaxAge = 0
	}
	return &cp
}

// Reset drops every cookie.
func (j *Jar) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()

	// cookiejar.New only fails on a bad options value, which is fixed here.
	inner, _ := newCookieJar()
	j.inner = inner
	j.tracked = make(map[string]*http.Cookie)
}

func (j *Jar) setOnChange(fn func()) {
	j.mu.Lock()
	j.onChange = fn
	j.mu.Unlock()
}
