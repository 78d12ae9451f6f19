package rag_http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"
)

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	// RateLimitRPS of 0 disables per-IP rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter registers every route on a new echo instance. Cross-origin access
// is open to any origin. Only /ask and /retrieve are rate limited.
func NewRouter(ctx context.Context, h *Handler, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	var limited []echo.MiddlewareFunc
	if cfg.RateLimitRPS > 0 {
		limited = append(limited, NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst).Middleware())
	}

	e.GET("/", h.Root)
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
	e.POST("/ask", h.Ask, limited...)
	e.POST("/retrieve", h.Retrieve, limited...)

	return e
}

// WithH2C lets clients speak HTTP/2 without TLS.
func WithH2C(handler http.Handler) http.Handler {
	return h2c.NewHandler(handler, &http2.Server{})
}
