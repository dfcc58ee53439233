package reports

import (
	"github.com/go-chi/chi/v5"

	"github.com/invoicely/invoicely/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireUser)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/revenue", h.MonthlyRevenue)
		r.Get("/outstanding", h.Outstanding)
		r.Get("/status", h.StatusSummary)
	})
}
