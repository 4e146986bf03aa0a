package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/auth"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig wires the handlers into a router.
type RouterConfig struct {
	Content educontent.Service
	Auth    *auth.Service

	AllowedOrigins []string
	// Ready is pinged by /healthz/ready. Nil means always ready.
	Ready Pinger
	// Files serves stored files under FilesPrefix when set.
	Files       http.Handler
	FilesPrefix string
	// Timeout bounds request handling. Zero means no timeout.
	Timeout time.Duration
	// RequestLogging enables the chi request logger.
	RequestLogging bool
}

// NewRouter builds the HTTP surface of the service.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(RecoveryMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(CORSMiddleware(cfg.AllowedOrigins, nil, nil))
	if cfg.Timeout > 0 {
		r.Use(TimeoutMiddleware(cfg.Timeout))
	}
	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	app.RoutesHealthz(r)
	r.Get("/healthz/ready", readyHandler(cfg.Ready))
	r.Handle("/metrics", promhttp.Handler())

	if cfg.Files != nil && cfg.FilesPrefix != "" {
		r.Handle(cfg.FilesPrefix+"/*", http.StripPrefix(cfg.FilesPrefix, cfg.Files))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(RequestSizeLimitMiddleware(maxRequestBytes(cfg.Content)))
		r.Use(jwtauth.Verifier(cfg.Auth.TokenAuth()))
		r.Use(Authenticator(cfg.Auth))
		// Mounted routers inherit these only if set before mounting.
		r.NotFound(notFoundHandler)
		r.MethodNotAllowed(methodNotAllowedHandler)

		r.Mount("/auth", NewAuthHandler(cfg.Auth).Routes())
		r.Mount("/content", NewContentHandler(cfg.Content).Routes())
		r.Mount("/upload", NewUploadHandler(cfg.Content).Routes())
	})

	return r
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, errRouteNotFound)
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, errMethodNotAllowed)
}

// ReadyResponse is the body of the readiness check.
type ReadyResponse struct {
	Status string `json:"status"`
}

func readyHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				slog.Error("Readiness check failed", "error", err)
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, ReadyResponse{Status: "unavailable"})
				return
			}
		}
		render.JSON(w, r, ReadyResponse{Status: "ok"})
	}
}
