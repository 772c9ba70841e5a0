package handlers

import (
	"github.com/go-chi/chi"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Get("/health", h.HealthHandler)
	r.Method("GET", "/metrics", h.metrics.Handler())

	r.Route("/cards", func(r chi.Router) {
		r.Post("/", h.RegisterCard)
		r.Get("/{cardID}", h.GetCard)
		r.Get("/{cardID}/token", h.GetCardToken)
	})

	r.Post("/scan", h.Scan)
	r.Post("/logs", h.CreateLog)
}
