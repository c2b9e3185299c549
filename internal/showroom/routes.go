package showroom

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// MountRoutes wires the showroom endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router, requirePermission func(string) func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermShowroomView))
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.ShowProduct)
		r.Get("/dispatches", h.ListDispatches)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermShowroomDispatch))
		r.Post("/products", h.AddProduct)
		r.Post("/dispatches", h.CreateDispatch)
		r.Post("/dispatches/{id}/approve", h.ApproveDispatch)
		r.Post("/dispatches/{id}/dispatch", h.DispatchPickup)
		r.Post("/dispatches/{id}/complete", h.CompleteDispatch)
	})
}
