package invoices

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the invoice endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.List)
	r.Post("/invoices", h.Create)
	r.Get("/invoices/{id}", h.Get)
	r.Patch("/invoices/{id}", h.Update)
	r.Post("/invoices/{id}/send", h.Send)
	r.Post("/invoices/{id}/payment", h.RecordPayment)
}
