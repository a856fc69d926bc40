// Package web provides the HTTP server and handlers for the vocabulary
// admin UI and API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/config"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/web/middleware"
)

// Server is the HTTP server for the admin application.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	log     *slog.Logger
}

// NewServer creates a new Server instance. Background work started for the
// server, like rate limiter sweeps, stops when ctx ends.
func NewServer(ctx context.Context, service *core.Service, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		log:     logger,
	}
	s.setupMiddleware(ctx)
	s.setupRoutes(ctx)
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.ClientIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(ctx, s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(ctx context.Context) {
	s.router.Get("/healthz", s.handleHealth)

	// Progress streams stay open for the whole upload, so they are
	// registered outside the timeout group.
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))
		r.Get("/api/upload/{uploadID}/progress", s.handleUploadProgress)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(chimw.Compress(5))

		r.Get("/", s.handleDashboard)

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(s.cfg.Security))

			// Courses and stored days
			r.Get("/api/courses", s.handleListCourses)
			r.Get("/api/courses/{courseID}/days", s.handleListDays)
			r.Get("/api/courses/{courseID}/days/{day}", s.handleDayWords)
			r.Get("/api/courses/{courseID}/days/{day}/exists", s.handleDayExists)

			// Parsing without persistence
			r.Post("/api/parse", s.handleParse)
			r.Post("/api/courses/{courseID}/days/{day}/preview", s.handlePreview)
			r.Post("/api/enrich", s.handleEnrich)

			// Uploads
			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled && s.cfg.Rate.UploadLimit > 0 {
					r.Use(middleware.NewRateLimiter(ctx, s.cfg.Rate.UploadLimit, time.Minute).Handler)
				}
				r.Post("/api/courses/{courseID}/days/{day}/upload", s.handleUpload)
			})
			r.Get("/api/upload/{uploadID}/result", s.handleUploadResult)
			r.Post("/api/upload/{uploadID}/cancel", s.handleCancelUpload)
			r.Get("/api/upload-queue", s.handleUploadQueueStatus)

			// History
			r.Get("/api/uploads", s.handleUploadHistory)
			r.Get("/api/uploads/{uploadID}/source", s.handleUploadSource)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.log.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}
		next.ServeHTTP(w, r)
	})
}

// writeError writes a JSON error for request problems detected before
// reaching the service.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.log.WarnContext(r.Context(), "bad request", "status", status, "message", message, "path", r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("json encode error", "error", err)
	}
}
