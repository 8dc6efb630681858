package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cryptoproxy/internal/ratelimit"
)

// RouterConfig holds the middleware settings around the handler.
type RouterConfig struct {
	// CORSOrigins defaults to "*" when empty.
	CORSOrigins []string
	// Limiter throttles requests per client IP; nil disables throttling.
	Limiter *ratelimit.Limiter
}

// NewRouter mounts h under /api with request ids, logging, panic recovery,
// CORS, compression and rate limiting.
func NewRouter(h *Handler, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&logFormatter{logger: h.logger}))
	r.Use(recoverPanic(h.logger))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.Compress(5, "application/json"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(ratelimit.Middleware(cfg.Limiter, ratelimit.ClientIP, func(w http.ResponseWriter, _ *http.Request) {
				writeFailure(w, http.StatusTooManyRequests, "Too Many Attempts.", nil)
			}))
		}
		r.Get("/top-cryptos", h.ListTop)
		r.Get("/search", h.Search)
		r.Get("/crypto/{id}", h.GetByID)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, "Not Found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
	})
	return r
}
