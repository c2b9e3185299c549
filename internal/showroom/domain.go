package showroom

import "time"

// ProductStatus marks whether a showroom unit is still sellable.
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusSold      ProductStatus = "sold"
)

// Product is a finished unit on the showroom floor.
type Product struct {
	ID        int64         `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	SKU       string        `json:"sku" db:"sku"`
	Category  string        `json:"category" db:"category"`
	Price     float64       `json:"price" db:"price"`
	Status    ProductStatus `json:"status" db:"status"`
	Notes     *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// DispatchStatus is the lifecycle of a dispatch request.
type DispatchStatus string

const (
	DispatchStatusPending    DispatchStatus = "pending"
	DispatchStatusApproved   DispatchStatus = "approved"
	DispatchStatusDispatched DispatchStatus = "dispatched"
	DispatchStatusCompleted  DispatchStatus = "completed"
)

// DispatchRequest moves a sold unit out of the showroom. Approval opens a
// delivery job; dispatching hands the pickup to the gate.
type DispatchRequest struct {
	ID                int64          `json:"id" db:"id"`
	SalesOrderID      int64          `json:"sales_order_id" db:"sales_order_id"`
	ShowroomProductID int64          `json:"showroom_product_id" db:"showroom_product_id"`
	Status            DispatchStatus `json:"status" db:"status"`
	RequestedBy       int64          `json:"requested_by" db:"requested_by"`
	Notes             *string        `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}
