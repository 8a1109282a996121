package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskboard/internal/apipaths"
)

// Server is the edge server: guard first, then the frontend proxy
type Server struct {
	engine *gin.Engine
	guard  *Guard
	logger *slog.Logger
}

// NewServer wires the guard, health endpoint and proxy onto a gin engine
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	proxy, err := NewProxy(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggerMiddleware(logger))
	engine.Use(securityHeadersMiddleware())

	guard := NewGuard(cfg, logger)
	engine.Use(guard.Gin())

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "gateway"})
	}
	engine.GET(apipaths.Health, health)
	engine.HEAD(apipaths.Health, health)

	engine.NoRoute(gin.WrapH(proxy))

	return &Server{engine: engine, guard: guard, logger: logger}, nil
}

// Handler exposes the engine for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// securityHeadersMiddleware adds security-related HTTP headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// HSTS only over HTTPS
		if c.Request.TLS != nil {
			c.Writer.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// loggerMiddleware logs HTTP requests once they complete
func loggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote_addr", c.Request.RemoteAddr,
		)
	}
}
