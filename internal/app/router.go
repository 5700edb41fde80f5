package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atelier-erp/atelier/internal/approvals"
	"github.com/atelier-erp/atelier/internal/files"
	"github.com/atelier-erp/atelier/internal/invoices"
	"github.com/atelier-erp/atelier/internal/projects"
	"github.com/atelier-erp/atelier/internal/tickets"
	"github.com/atelier-erp/atelier/internal/variations"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	ProjectsHandler  *projects.Handler
	FilesHandler     *files.Handler
	InvoicesHandler  *invoices.Handler
	VariationHandler *variations.Handler
	TicketsHandler   *tickets.Handler
	ApprovalsHandler *approvals.Handler
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		params.ProjectsHandler.MountRoutes(api)
		params.FilesHandler.MountRoutes(api)
		params.InvoicesHandler.MountRoutes(api)
		params.VariationHandler.MountRoutes(api)
		params.TicketsHandler.MountRoutes(api)
		params.ApprovalsHandler.MountRoutes(api)
	})

	return r
}
