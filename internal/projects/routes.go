package projects

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the project endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects", h.List)
	r.Post("/projects", h.Create)
	r.Get("/projects/{id}", h.Get)
	r.Get("/projects/{id}/overview", h.Overview)
}
