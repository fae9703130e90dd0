package api

import (
	"net/http"

	"github.com/dom/task-tracker/internal/api/handlers"
	"github.com/dom/task-tracker/internal/api/middleware"
	"github.com/dom/task-tracker/internal/config"
	"github.com/dom/task-tracker/internal/repository"
	"github.com/dom/task-tracker/internal/service"
	"github.com/dom/task-tracker/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(services *service.Services, hub *websocket.Hub, repos *repository.Repositories, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics)
		r.Handle("/metrics", promhttp.Handler())
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(repos.DB)
	authHandler := handlers.NewAuthHandler(services.Auth)
	taskHandler := handlers.NewTaskHandler(services.Task)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, cfg.CORSAllowedOrigins)

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Get("/readyz", healthHandler.Ready)

	routes := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			// Long-lived; authenticates itself and skips the request timeout.
			r.Get("/stream", wsHandler.Handle)

			r.Group(func(r chi.Router) {
				r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
				r.Use(middleware.Auth(services.Auth))
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
			})
		})
	}

	// The contract is served at the root and, for the original web client,
	// under /api.
	routes(r)
	r.Route("/api", routes)

	return r
}
