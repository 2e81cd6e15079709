package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/workdiary-service/internal/delivery/http/handler"
	"github.com/user/workdiary-service/internal/delivery/http/middleware"
)

type Options struct {
	APIKey string
	// ImageDir is served under /images when set.
	ImageDir string
}

func New(h *handler.Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.APIKeyHeader},
	}))
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/health", h.HandleHealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(opts.APIKey))

		r.Get("/", h.HandleRoot)
		r.Route("/api/workdiary", func(r chi.Router) {
			r.Post("/", h.HandleCreateEntry)
			r.Get("/", h.HandleListEntries)
		})

		if opts.ImageDir != "" {
			r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(opts.ImageDir))))
		}
	})

	return r
}
