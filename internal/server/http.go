package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/config"
	httphandler "github.com/windfall/spellcheck_service/internal/handler/http"
	"github.com/windfall/spellcheck_service/internal/middleware"
	"github.com/windfall/spellcheck_service/internal/service"
	"github.com/windfall/spellcheck_service/pkg/response"
)

// HTTPServer represents the HTTP server.
type HTTPServer struct {
	server *http.Server
	log    zerolog.Logger
}

// WebHandlers groups the handlers mounted by the web application.
type WebHandlers struct {
	Health *httphandler.HealthHandler
	Spells *httphandler.SpellHandler
	Audio  *httphandler.AudioHandler
	Auth   *httphandler.AuthHandler
}

func newRouter(cfg *config.Config, log zerolog.Logger, health *httphandler.HealthHandler) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(log))
	r.Use(chimiddleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Detail(w, http.StatusNotFound, "Not Found")
	})

	// Health endpoints (public)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Get("/live", health.Live)

	return r
}

// uploadLimiter limits requests per client IP.
func uploadLimiter(cfg *config.Config) func(http.Handler) http.Handler {
	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 30
	}
	return httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Detail(w, http.StatusTooManyRequests, "Too many requests, slow down")
		}),
	)
}

// NewAssessorHandler builds the assessment service router.
func NewAssessorHandler(cfg *config.Config, log zerolog.Logger, health *httphandler.HealthHandler, assess *httphandler.AssessHandler) http.Handler {
	r := newRouter(cfg, log, health)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger(log))
		r.Use(uploadLimiter(cfg))
		assess.Routes(r)
	})
	return r
}

// NewWebHandler builds the web application router.
func NewWebHandler(cfg *config.Config, log zerolog.Logger, h WebHandlers, authService *service.AuthService) http.Handler {
	r := newRouter(cfg, log, h.Health)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(authService))
		r.Use(middleware.Logger(log))

		// Pages
		r.Get("/", h.Spells.Index)
		r.Get("/spells", h.Spells.Catalog)
		r.Get("/spells/{name}", h.Spells.Detail)

		// Accounts
		r.Get("/register", h.Auth.RegisterPage)
		r.Post("/register", h.Auth.Register)
		r.Get("/login", h.Auth.LoginPage)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
		r.With(middleware.RequireUser("/login")).Get("/profile", h.Auth.Profile)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Get("/spells", h.Spells.List)
			r.With(uploadLimiter(cfg)).Post("/audio", h.Audio.Upload)
			r.Post("/pronunciation", h.Audio.Pronunciation)
		})
	})
	return r
}

// NewHTTPServer wraps handler in an http.Server using the configured address and timeouts.
func NewHTTPServer(cfg *config.Config, log zerolog.Logger, handler http.Handler) *HTTPServer {
	server := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &HTTPServer{
		server: server,
		log:    log,
	}
}

// Start starts the HTTP server.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
