package auth

import (
	"github.com/go-chi/chi/v5"

	"github.com/invoicely/invoicely/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireUser)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})
}
