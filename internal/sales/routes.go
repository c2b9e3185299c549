package sales

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// MountRoutes wires the sales endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router, requirePermission func(string) func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermSalesOrderView))
		r.Get("/orders", h.List)
		r.Get("/orders/{id}", h.Show)
		r.Get("/orders/number/{number}", h.ShowByNumber)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermSalesOrderCreate))
		r.Post("/orders", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermSalesOrderConfirm))
		r.Post("/transport-demand/{requestID}/confirm", h.ConfirmDemand)
	})
}
