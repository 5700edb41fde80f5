package approvals

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier/internal/platform/httpx"
	"github.com/atelier-erp/atelier/internal/shared"
)

// Handler exposes the approval-packet API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePacketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create approval packet failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, p)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) GetByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	p, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListPacketsRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("project_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ProjectID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		status := PacketStatus(v)
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

	packets, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list approval packets failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Collection(w, packets, total)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.Send(r.Context(), id)
	if err != nil {
		h.logger.Error("send approval packet failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) DecideItem(w http.ResponseWriter, r *http.Request) {
	packetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	var req DecideItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	item, err := h.service.DecideItem(r.Context(), packetID, itemID, req)
	if err != nil {
		h.logger.Error("decide approval item failed", slog.Any("error", err), slog.Int64("packet_id", packetID), slog.Int64("item_id", itemID))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, item)
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req DecidePacketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w)
		return
	}
	p, err := h.service.Decide(r.Context(), id, req)
	if err != nil {
		h.logger.Error("decide approval packet failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.FinalizeFromItems(r.Context(), id)
	if err != nil {
		h.logger.Error("finalize approval packet failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, p)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validationf("invalid %s", name))
		return 0, false
	}
	return id, true
}
