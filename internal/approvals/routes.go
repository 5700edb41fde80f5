package approvals

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the approval-packet endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/approvals", h.List)
	r.Post("/approvals", h.Create)
	r.Get("/approvals/{id}", h.Get)
	r.Post("/approvals/{id}/send", h.Send)
	r.Post("/approvals/{id}/decide", h.Decide)
	r.Post("/approvals/{id}/finalize", h.Finalize)
	r.Post("/approvals/{id}/items/{itemID}/decide", h.DecideItem)
	r.Get("/approvals/shared/{token}", h.GetByToken)
}
