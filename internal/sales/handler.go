package sales

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler serves the sales order API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSalesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	order, err := h.service.CreateOrder(r.Context(), shared.ActorFromContext(r.Context()), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) ShowByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrderByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListSalesOrdersRequest{Limit: 50}

	q := r.URL.Query()
	if v := q.Get("order_status"); v != "" {
		s := OrderStatus(v)
		if !s.IsValid() {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown order_status "+v)
			return
		}
		req.OrderStatus = &s
	}
	if v := q.Get("payment_status"); v != "" {
		s := PaymentStatus(v)
		if !s.IsValid() {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown payment_status "+v)
			return
		}
		req.PaymentStatus = &s
	}
	req.DateFrom = parseDate(q.Get("date_from"))
	req.DateTo = parseDate(q.Get("date_to"))
	if v := q.Get("search"); v != "" {
		req.Search = &v
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

	orders, total, err := h.service.ListOrders(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
		"limit":  req.Limit,
		"offset": req.Offset,
	})
}

func (h *Handler) ConfirmDemand(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid approval request id")
		return
	}

	var req ConfirmDemandRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	order, err := h.service.ConfirmTransportDemand(r.Context(), shared.ActorFromContext(r.Context()), requestID, DemandAction(req.Action))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
