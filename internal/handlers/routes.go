package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the health check and the v1 API on r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/periods", h.GetPeriods)

		// Reports
		r.Get("/report", h.GetReport)
		r.Get("/report/summary", h.GetSummary)
		r.Get("/report/markets", h.GetMarkets)
		r.Get("/report/timeline", h.GetTimeline)

		// Bets
		r.Get("/bets", h.GetBets)
		r.Get("/bets/export", h.ExportBets)
	})
}
