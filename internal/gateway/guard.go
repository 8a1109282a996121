package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Decision is the guard's verdict for a navigation
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	default:
		return "allow"
	}
}

// Decide is the guard's truth table. Token presence is all that counts;
// an expired token still allows and the page's first API call sorts it out.
func Decide(class RouteClass, hasToken bool) Decision {
	switch {
	case class == Protected && !hasToken:
		return RedirectToLogin
	case class == Public && hasToken:
		return RedirectToHome
	default:
		return Allow
	}
}

// Guard gates page navigations on the presence of the access-token cookie
type Guard struct {
	routes     *RouteTable
	cookieName string
	loginPath  string
	homePath   string
	logger     *slog.Logger
}

// NewGuard builds a guard from validated config
func NewGuard(cfg *Config, logger *slog.Logger) *Guard {
	return &Guard{
		routes:     NewRouteTable(cfg.PublicPaths),
		cookieName: cfg.AccessTokenCookie,
		loginPath:  cfg.LoginPath,
		homePath:   cfg.HomePath,
		logger:     logger,
	}
}

// Evaluate decides what to do with req. Excluded paths always pass. Both
// checks run on the cleaned path, which is also what the proxy forwards, so
// "/api/../tasks" is judged as "/tasks".
func (g *Guard) Evaluate(req *http.Request) Decision {
	p := CleanPath(req.URL.Path)
	if g.routes.Excluded(p) {
		return Allow
	}
	return Decide(g.routes.Classify(p), g.hasToken(req))
}

func (g *Guard) hasToken(req *http.Request) bool {
	cookie, err := req.Cookie(g.cookieName)
	return err == nil && cookie.Value != ""
}

// target returns the redirect destination for d, or "" for Allow
func (g *Guard) target(d Decision) string {
	switch d {
	case RedirectToLogin:
		return g.loginPath
	case RedirectToHome:
		return g.homePath
	default:
		return ""
	}
}

// Middleware wraps next with the guard for plain net/http stacks
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if g.redirect(w, req) {
			return
		}
		next.ServeHTTP(w, req)
	})
}

// Gin returns the guard as gin middleware
func (g *Guard) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.redirect(c.Writer, c.Request) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// redirect writes a redirect when the guard says so and reports whether it did
func (g *Guard) redirect(w http.ResponseWriter, req *http.Request) bool {
	decision := g.Evaluate(req)
	if decision == Allow {
		return false
	}

	location := requestScheme(req) + "://" + req.Host + g.target(decision)
	g.logger.DebugContext(req.Context(), "gateway: redirecting navigation",
		"path", req.URL.Path,
		"decision", decision.String(),
		"location", location,
	)
	http.Redirect(w, req, location, http.StatusTemporaryRedirect)
	return true
}

func requestScheme(req *http.Request) string {
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if req.TLS != nil {
		return "https"
	}
	return "http"
}
