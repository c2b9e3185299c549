package gate

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler serves the watchman and gate-entry API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func passID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gatePassID"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := passID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid gate pass id")
		return
	}
	var req VerifyIdentityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	result, err := h.service.VerifyIdentity(r.Context(), shared.ActorFromContext(r.Context()), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	// mismatch is a 409 so gate clients surface it loudly, but the pass
	// itself is untouched
	status := http.StatusOK
	if result.Outcome == OutcomeIdentityMismatch {
		status = http.StatusConflict
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := passID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid gate pass id")
		return
	}
	var req RejectPickupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	pass, err := h.service.RejectPickup(r.Context(), shared.ActorFromContext(r.Context()), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pass)
}

func (h *Handler) PendingPickups(w http.ResponseWriter, r *http.Request) {
	passes, err := h.service.ListPendingPickups(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"gate_passes": passes})
}

func (h *Handler) GatePasses(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	passes, err := h.service.ListGatePasses(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"gate_passes": passes})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.DailySummary(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	passes, err := h.service.SearchGatePasses(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"gate_passes": passes})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterPersonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	log, err := h.service.RegisterPerson(r.Context(), shared.ActorFromContext(r.Context()), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, log)
}

func (h *Handler) movement(kind LogKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ManualLogRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		log, err := h.service.RecordMovement(r.Context(), shared.ActorFromContext(r.Context()), kind, req)
		if err != nil {
			httpx.RespondError(w, h.logger, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, log)
	}
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	logs, err := h.service.ListLogs(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (h *Handler) TodayLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.ListTodayLogs(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logs": logs})
}
