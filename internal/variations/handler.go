package variations

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier/internal/platform/httpx"
	"github.com/atelier-erp/atelier/internal/shared"
)

// Handler exposes the variation-request API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVariationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	v, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create variation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, v)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, v)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListVariationsRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("project_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ProjectID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		status := VariationStatus(v)
		req.Status = &status
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Offset = n
		}
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list variations failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Collection(w, items, total)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateVariationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	v, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update variation failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, v)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Submit(r.Context(), id)
	if err != nil {
		h.logger.Error("submit variation failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, v)
}

func (h *Handler) SetDisposition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SetDispositionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	v, err := h.service.SetDisposition(r.Context(), id, req)
	if err != nil {
		h.logger.Error("set disposition failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, v)
}

func (h *Handler) ClientApprove(w http.ResponseWriter, r *http.Request) {
	h.clientDecision(w, r, h.service.ClientApprove)
}

func (h *Handler) ClientDecline(w http.ResponseWriter, r *http.Request) {
	h.clientDecision(w, r, h.service.ClientDecline)
}

func (h *Handler) clientDecision(w http.ResponseWriter, r *http.Request, decide func(context.Context, int64, ClientDecisionRequest) (*VariationRequest, error)) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req ClientDecisionRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.BadJSON(w)
			return
		}
	}
	v, err := decide(r.Context(), id, req)
	if err != nil {
		h.logger.Error("client decision failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, v)
}

func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req GenerateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	v, err := h.service.GenerateInvoice(r.Context(), id, req)
	if err != nil {
		h.logger.Error("generate invoice failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, v)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validationf("invalid id"))
		return 0, false
	}
	return id, true
}
