package gate

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// MountWatchmanRoutes wires the verification endpoints under /watchman.
func (h *Handler) MountWatchmanRoutes(r chi.Router, requirePermission func(string) func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermGatePassVerify))
		r.Post("/verify/{gatePassID}", h.Verify)
		r.Post("/reject/{gatePassID}", h.Reject)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermGatePassView))
		r.Get("/pending-pickups", h.PendingPickups)
		r.Get("/gate-passes", h.GatePasses)
		r.Get("/summary", h.Summary)
		r.Get("/search", h.Search)
	})
}

// MountEntryRoutes wires the visitor ledger endpoints under /gate-entry.
func (h *Handler) MountEntryRoutes(r chi.Router, requirePermission func(string) func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermGateEntryWrite))
		r.Post("/register", h.Register)
		r.Post("/manual-entry", h.movement(LogKindManualEntry))
		r.Post("/manual-exit", h.movement(LogKindManualExit))
		r.Post("/going-out", h.movement(LogKindGoingOut))
		r.Post("/coming-back", h.movement(LogKindComingBack))
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermGatePassView))
		r.Get("/logs", h.Logs)
		r.Get("/today-logs", h.TodayLogs)
	})
}
