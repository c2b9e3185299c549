package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// MountRoutes wires the transport endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router, requirePermission func(string) func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermTransportApprovalView))
		r.Get("/approvals", h.ListApprovals)
		r.Get("/approvals/{id}", h.ShowApproval)
		r.Get("/approvals/{id}/history", h.ApprovalHistory)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermTransportApprovalDecide))
		r.Post("/approvals/{id}/approve", h.Approve)
		r.Post("/approvals/{id}/reject", h.Reject)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermFleetView))
		r.Get("/fleet", h.ListFleet)
		r.Get("/fleet/available", h.ListAvailable)
		r.Get("/fleet/{id}", h.ShowVehicle)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermFleetManage))
		r.Post("/fleet", h.AddVehicle)
		r.Post("/fleet/{id}/status", h.SetVehicleStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermTransportJobAssign))
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.ShowJob)
		r.Post("/jobs/{id}/assign", h.AssignJob)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermTransportJobComplete))
		r.Post("/jobs/{id}/start", h.StartJob)
		r.Post("/jobs/{id}/complete", h.CompleteJob)
	})
}
