package tickets

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier/internal/platform/httpx"
	"github.com/atelier-erp/atelier/internal/shared"
)

// Handler exposes the ticket API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	t, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create ticket failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, t)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, t)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListTicketsRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("project_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ProjectID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		status := TicketStatus(v)
		req.Status = &status
	}
	if v := q.Get("assignee_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.AssigneeID = &id
		}
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

	tickets, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list tickets failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Collection(w, tickets, total)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateTicketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	t, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update ticket failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, t)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SetStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	t, err := h.service.SetStatus(r.Context(), id, req)
	if err != nil {
		h.logger.Error("set ticket status failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, t)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	t, err := h.service.Assign(r.Context(), id, req)
	if err != nil {
		h.logger.Error("assign ticket failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, t)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validationf("invalid id"))
		return 0, false
	}
	return id, true
}
