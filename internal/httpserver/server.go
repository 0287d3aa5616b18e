package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/PortNumber53/cohost-tasks/backend/internal/auth"
	"github.com/PortNumber53/cohost-tasks/backend/internal/config"
	"github.com/PortNumber53/cohost-tasks/backend/internal/handlers"
	"github.com/PortNumber53/cohost-tasks/backend/internal/metrics"
	appmw "github.com/PortNumber53/cohost-tasks/backend/internal/middleware"
)

// Deps carries the collaborators the routes are built from.
type Deps struct {
	Logger   zerolog.Logger
	DB       handlers.Pinger
	Resolver auth.Resolver
	Tasks    interface {
		handlers.TaskService
		handlers.ListingService
	}
	Status  handlers.StatusReader
	Extract handlers.Extractor
	Stripe  *handlers.StripeHandler
	Metrics *metrics.Metrics
}

// Server wraps an http.Server with convenience helpers for startup/shutdown.
type Server struct {
	httpServer *http.Server
}

// New constructs an HTTP server using the provided configuration and dependencies.
func New(cfg config.Config, deps Deps) *Server {
	resolver := deps.Resolver
	if resolver == nil {
		resolver = auth.HeaderResolver{}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(hlog.NewHandler(deps.Logger))
	router.Use(requestIDLogger)
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	router.Use(middleware.Recoverer)
	router.Use(appmw.CORS(cfg.AllowedOrigins))
	router.Use(appmw.RequestMetrics(deps.Metrics))

	router.Get("/health", handlers.Health(deps.DB))
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// The webhook must see the raw body, so it sits outside identity handling.
	if deps.Stripe != nil {
		deps.Stripe.RegisterWebhook(router)
	}

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(resolver))

		if deps.Stripe != nil {
			deps.Stripe.RegisterRoutes(r)
		}
		if deps.Status != nil {
			r.Get("/api/user/status", handlers.UserStatus(deps.Status))
		}
		if deps.Extract != nil {
			r.Post("/api/ai/extract-tasks", handlers.ExtractTasks(deps.Extract))
		}

		if deps.Tasks != nil {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireIdentity)
				r.Get("/api/tasks", handlers.ListTasks(deps.Tasks))
				r.Post("/api/tasks", handlers.CreateTask(deps.Tasks))
				r.Patch("/api/tasks/{id}", handlers.UpdateTask(deps.Tasks))
				r.Put("/api/tasks/{id}", handlers.UpdateTask(deps.Tasks))
				r.Delete("/api/tasks/{id}", handlers.DeleteTask(deps.Tasks))
				r.Get("/api/listings", handlers.ListListings(deps.Tasks))
				r.Post("/api/listings", handlers.CreateListing(deps.Tasks))
			})
		}
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: srv}
}

func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

// Start begins serving HTTP traffic. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
