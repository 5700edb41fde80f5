package tickets

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the ticket endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tickets", h.List)
	r.Post("/tickets", h.Create)
	r.Get("/tickets/{id}", h.Get)
	r.Patch("/tickets/{id}", h.Update)
	r.Post("/tickets/{id}/status", h.SetStatus)
	r.Post("/tickets/{id}/assign", h.Assign)
}
