package shared

// Permissions declared per department surface. Every mutating route requires
// one of these; there are no implicit admin bypasses.
const (
	PermSalesOrderView    = "sales.order.view"
	PermSalesOrderCreate  = "sales.order.create"
	PermSalesOrderConfirm = "sales.order.confirm"

	PermTransportApprovalView   = "transport.approval.view"
	PermTransportApprovalDecide = "transport.approval.decide"
	PermFleetView               = "transport.fleet.view"
	PermFleetManage             = "transport.fleet.manage"
	PermTransportJobAssign      = "transport.job.assign"
	PermTransportJobComplete    = "transport.job.complete"

	PermFinancePaymentSubmit = "finance.payment.submit"
	PermFinancePaymentDecide = "finance.payment.decide"
	PermFinanceView          = "finance.view"

	PermGatePassView   = "gate.pass.view"
	PermGatePassVerify = "gate.pass.verify"
	PermGateEntryWrite = "gate.entry.write"

	PermProductionView   = "production.order.view"
	PermProductionManage = "production.order.manage"

	PermPurchaseView   = "purchase.order.view"
	PermPurchaseManage = "purchase.order.manage"

	PermInventoryView   = "inventory.view"
	PermInventoryAdjust = "inventory.adjust"

	PermShowroomView     = "showroom.view"
	PermShowroomDispatch = "showroom.dispatch"

	PermUserApprove = "users.approve"
)

// Departments used by the original organisation.
const (
	DeptAdmin      = "admin"
	DeptSales      = "sales"
	DeptTransport  = "transport"
	DeptFinance    = "finance"
	DeptWatchman   = "watchman"
	DeptProduction = "production"
	DeptPurchase   = "purchase"
	DeptStore      = "store"
	DeptShowroom   = "showroom"
)

var departmentScopes = map[string][]string{
	DeptSales: {
		PermSalesOrderView, PermSalesOrderCreate, PermSalesOrderConfirm,
		PermTransportApprovalView, PermFinancePaymentSubmit, PermShowroomView,
	},
	DeptTransport: {
		PermTransportApprovalView, PermTransportApprovalDecide,
		PermFleetView, PermFleetManage, PermTransportJobAssign, PermTransportJobComplete,
		PermSalesOrderView,
	},
	DeptFinance: {
		PermFinanceView, PermFinancePaymentDecide, PermSalesOrderView,
	},
	DeptWatchman: {
		PermGatePassView, PermGatePassVerify, PermGateEntryWrite,
	},
	DeptProduction: {
		PermProductionView, PermProductionManage, PermInventoryView,
	},
	DeptPurchase: {
		PermPurchaseView, PermPurchaseManage, PermInventoryView,
	},
	DeptStore: {
		PermInventoryView, PermInventoryAdjust,
	},
	DeptShowroom: {
		PermShowroomView, PermShowroomDispatch, PermSalesOrderView, PermGatePassView,
	},
}

// ScopesForDepartment returns the permission set granted to a department.
// Admin holds every declared permission.
func ScopesForDepartment(department string) []string {
	if department == DeptAdmin {
		all := make([]string, 0, 32)
		seen := make(map[string]struct{})
		for _, scopes := range departmentScopes {
			for _, s := range scopes {
				if _, ok := seen[s]; ok {
					continue
				}
				seen[s] = struct{}{}
				all = append(all, s)
			}
		}
		return append(all, PermUserApprove)
	}
	return departmentScopes[department]
}

// HasScope reports whether the actor's department grants the permission.
func HasScope(actor *Actor, perm string) bool {
	if actor == nil {
		return false
	}
	for _, s := range ScopesForDepartment(actor.Department) {
		if s == perm {
			return true
		}
	}
	return false
}
