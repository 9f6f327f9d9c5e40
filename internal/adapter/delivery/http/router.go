// Package http provides the HTTP delivery layer for the URL shortener service.
// It contains the chi router, the middleware chain and the handlers that
// validate input, call the use cases and format the JSON envelope.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/shortlink/pkg/middleware/recoverer"
)

const (
	defaultRateLimitRequests = 100
	defaultRateLimitWindow   = 15 * time.Minute
	defaultSwaggerFile       = "./docs/swagger.yml"
	maxRequestBodyBytes      = 1 << 20
)

type routerOptions struct {
	rateLimitRequests int
	rateLimitWindow   time.Duration
	swaggerFile       string
	startedAt         time.Time
}

type RouterOption func(*routerOptions)

// WithRateLimit limits every client IP to requests calls to /api per window.
func WithRateLimit(requests int, window time.Duration) RouterOption {
	return func(o *routerOptions) {
		if requests > 0 {
			o.rateLimitRequests = requests
		}
		if window > 0 {
			o.rateLimitWindow = window
		}
	}
}

// WithSwaggerFile sets the OpenAPI document served at /docs/swagger.yml.
func WithSwaggerFile(path string) RouterOption {
	return func(o *routerOptions) {
		if path != "" {
			o.swaggerFile = path
		}
	}
}

// WithStartTime sets the process start time reported as uptime by /health.
func WithStartTime(t time.Time) RouterOption {
	return func(o *routerOptions) {
		o.startedAt = t
	}
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, db pinger, opts ...RouterOption) *chi.Mux {
	o := routerOptions{
		rateLimitRequests: defaultRateLimitRequests,
		rateLimitWindow:   defaultRateLimitWindow,
		swaggerFile:       defaultSwaggerFile,
		startedAt:         time.Now(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.GetHead)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, _ string) bool {
			return true
		},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", userIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(middleware.SetHeader("X-Frame-Options", "SAMEORIGIN"))
	r.Use(middleware.SetHeader("Referrer-Policy", "no-referrer"))
	r.Use(middleware.SetHeader("Strict-Transport-Security", "max-age=15552000; includeSubDomains"))

	h := newURLHandler(urlUseCase, validator.New())
	hh := newHealthHandler(db, o.startedAt)

	r.Get("/health", hh.check)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, o.swaggerFile)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.Limit(
			o.rateLimitRequests,
			o.rateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(tooManyRequests),
		))
		r.Use(middleware.RequestSize(maxRequestBodyBytes))

		r.Post("/shorten", h.shortenURL)
		r.Get("/history", h.getUserHistory)
		r.Get("/stats/{shortId}", h.getURLStats)
		r.Delete("/delete/{shortId}", h.deleteURL)
		r.Get("/qr/{shortId}", h.qrCode)
	})

	r.Get("/{shortId}", h.redirect)

	return r
}
