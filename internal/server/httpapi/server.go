package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aidolab/mgstudio/internal/server/metrics"
)

// Router assembles the API routes. Authentication wraps everything except
// /send_code, /login, and /metrics.
func (h *Handlers) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.metricsMiddleware)

	r.Post("/send_code", h.SendCode)
	r.Post("/login", h.Login)
	r.Handle("/metrics", metrics.Handler(gatherer))

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.Post("/logout", h.Logout)
		r.Post("/generate", h.Generate)
		r.Get("/user/works", h.UserWorks)
		r.Get("/video/{id}", h.WorkDetail)
		r.Delete("/video/{id}", h.DeleteWork)
	})

	return r
}
