package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/movie-night-core/server/internal/auth"
)

// NewRouter wires the middleware stack and routes.
func NewRouter(cfg Config, verifier auth.TokenVerifier, turns TurnService) http.Handler {
	h := NewHandler(turns)
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(cfg.CORSOrigins))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		r.Use(RateLimitByUser(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Post("/chat", h.Chat)
	})

	return r
}
