package showroom

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler serves the showroom API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	product, err := h.service.AddProduct(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var status *ProductStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := ProductStatus(v)
		if s != ProductStatusAvailable && s != ProductStatusSold {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status "+v)
			return
		}
		status = &s
	}
	products, err := h.service.ListProducts(r.Context(), status)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) ShowProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) CreateDispatch(w http.ResponseWriter, r *http.Request) {
	var req CreateDispatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	dispatch, err := h.service.CreateDispatch(r.Context(), shared.ActorFromContext(r.Context()), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dispatch)
}

func (h *Handler) ApproveDispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid dispatch id")
		return
	}
	dispatch, err := h.service.ApproveDispatch(r.Context(), shared.ActorFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dispatch)
}

func (h *Handler) DispatchPickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid dispatch id")
		return
	}
	var req DispatchPickupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	dispatch, err := h.service.DispatchPickup(r.Context(), shared.ActorFromContext(r.Context()), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dispatch)
}

func (h *Handler) CompleteDispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid dispatch id")
		return
	}
	dispatch, err := h.service.CompleteDispatch(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dispatch)
}

func (h *Handler) ListDispatches(w http.ResponseWriter, r *http.Request) {
	status := DispatchStatusPending
	if v := r.URL.Query().Get("status"); v != "" {
		status = DispatchStatus(v)
		switch status {
		case DispatchStatusPending, DispatchStatusApproved, DispatchStatusDispatched, DispatchStatusCompleted:
		default:
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status "+v)
			return
		}
	}
	dispatches, err := h.service.ListDispatches(r.Context(), status)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"dispatches": dispatches})
}
