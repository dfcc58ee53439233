package invoices

import (
	"github.com/go-chi/chi/v5"

	"github.com/invoicely/invoicely/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireUser)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/status", h.UpdateStatus)
		r.Post("/{id}/send", h.Send)
		r.Get("/{id}/pdf", h.PDF)
	})
}
