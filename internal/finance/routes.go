package finance

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// MountRoutes wires the finance endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router, requirePermission func(string) func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermFinancePaymentSubmit))
		r.Post("/orders/{orderID}/payments", h.SubmitPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermFinancePaymentDecide))
		r.Post("/orders/{orderID}/payments/{txnID}/decision", h.DecidePayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(requirePermission(shared.PermFinanceView))
		r.Get("/orders/{orderID}/payments", h.ListOrderTransactions)
		r.Get("/approvals/pending", h.ListPendingApprovals)
	})
}
