package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins. "*" allows any.
	AllowedOrigins []string
}

// DefaultConfig allows any origin.
func DefaultConfig() Config {
	return Config{AllowedOrigins: []string{"*"}}
}

// NewRouter registers the API routes on a method-routed ServeMux and wraps
// it in the middleware chain.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /jobs", h.ListJobs)
	mux.HandleFunc("POST /jobs", h.CreateJob)
	mux.HandleFunc("GET /jobs/{id}", h.GetJob)
	mux.Handle("GET /metrics", promhttp.Handler())

	return Chain(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		MetricsMiddleware(),
		CORSMiddleware(cfg.AllowedOrigins),
	)(mux)
}
