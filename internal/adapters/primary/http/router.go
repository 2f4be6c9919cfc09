package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	mw "github.com/lorrc/helpdesk/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk/internal/auth"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// RouterConfig collects what the API router serves. Optional parts may be nil.
type RouterConfig struct {
	Logger       *slog.Logger
	TokenManager *auth.TokenManager

	Queries    ports.QueryService
	Lifecycle  ports.LifecycleService
	Dashboards ports.DashboardService
	Directory  ports.DirectoryService

	Health    *HealthHandler
	WebSocket *WebSocketHandler

	RateLimiter  *mw.RateLimiter
	WriteLimiter *mw.RateLimiter

	AllowedOrigins []string
	CORSMaxAge     int
}

// NewRouter wires middleware and handlers under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	errorHandler := NewErrorHandler(cfg.Logger)
	queryHandler := NewQueryHandler(cfg.Queries, cfg.Lifecycle, errorHandler, cfg.Logger)
	dashboardHandler := NewDashboardHandler(cfg.Dashboards, errorHandler, cfg.Logger)
	directoryHandler := NewDirectoryHandler(cfg.Directory, errorHandler, cfg.Logger)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(cfg.Logger))
	r.Use(mw.RecoveryLogger(cfg.Logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
			ExposedHeaders:   []string{mw.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           cfg.CORSMaxAge,
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(r)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Authentication is handled inside the handler
		if cfg.WebSocket != nil {
			r.Get("/ws", cfg.WebSocket.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(cfg.TokenManager))
			if cfg.WriteLimiter != nil {
				r.Use(cfg.WriteLimiter.Writes)
			}

			r.Route("/queries", queryHandler.RegisterRoutes)
			dashboardHandler.RegisterRoutes(r)
			directoryHandler.RegisterRoutes(r)
		})
	})

	return r
}
