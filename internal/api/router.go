// Package api provides HTTP router setup.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tendorai/avp/internal/config"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/health", handler.HealthCheck)
	if handler.metrics != nil {
		r.Method(http.MethodGet, "/metrics", handler.metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.Server.RequestsPerMinute > 0 {
			r.Use(RateLimitMiddleware(cfg.Server.RequestsPerMinute))
		}

		r.Post("/aeo-report", handler.GenerateReport)
		r.Get("/public/aeo-report/{id}", handler.GetReport)
		r.Get("/public/aeo-report/{id}/pdf", handler.GetReportPDF)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminMiddleware(cfg.Server.AdminToken))

		r.Post("/generate-vendor-reports-batch", handler.GenerateBatch)
		r.Post("/vendors/{id}/live-test", handler.LiveTest)
		r.Get("/vendors/{id}/mentions", handler.ListMentions)
		r.Delete("/vendors/{id}/reports", handler.DeleteVendorReports)
	})

	return r
}
