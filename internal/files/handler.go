package files

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier/internal/platform/httpx"
	"github.com/atelier-erp/atelier/internal/shared"
)

// Handler exposes the file-asset metadata API.
type Handler struct {
	logger *slog.Logger
	repo   *Repository
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input FileAssetInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.BadJSON(w)
		return
	}
	asset, err := h.repo.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("register file asset failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, asset)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validationf("invalid id"))
		return
	}
	asset, err := h.repo.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, asset)
}

func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(r.URL.Query().Get("project_id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validationf("project_id is required"))
		return
	}
	assets, err := h.repo.ListByProject(r.Context(), projectID)
	if err != nil {
		h.logger.Error("list file assets failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Collection(w, assets, len(assets))
}

// MountRoutes attaches the file-asset endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/files", h.ListByProject)
	r.Post("/files", h.Register)
	r.Get("/files/{id}", h.Get)
}
