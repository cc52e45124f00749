package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/neurowell/support-ai-platform/internal/chat"
	httpmiddleware "github.com/neurowell/support-ai-platform/internal/http/middleware"
	"github.com/neurowell/support-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *chat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitPerSec caps per-client chat traffic; zero disables the
	// limiter.
	RateLimitPerSec float64
	RateLimitBurst  int
}

// New wires the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.ChatHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		if cfg.RateLimitPerSec > 0 {
			burst := cfg.RateLimitBurst
			if burst < 1 {
				burst = 1
			}
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, burst))
		}
		api.Post("/chat", cfg.ChatHandler.Chat)
	})

	return r
}
