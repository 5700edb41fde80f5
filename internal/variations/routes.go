package variations

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the variation-request endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/variations", h.List)
	r.Post("/variations", h.Create)
	r.Get("/variations/{id}", h.Get)
	r.Patch("/variations/{id}", h.Update)
	r.Post("/variations/{id}/submit", h.Submit)
	r.Post("/variations/{id}/disposition", h.SetDisposition)
	r.Post("/variations/{id}/client-approve", h.ClientApprove)
	r.Post("/variations/{id}/client-decline", h.ClientDecline)
	r.Post("/variations/{id}/generate-invoice", h.GenerateInvoice)
}
