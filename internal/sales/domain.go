package sales

import "time"

// OrderStatus is the lifecycle of a sales order. Transition functions on the
// service are the only mutators; raw strings never reach the database.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPendingTransport  OrderStatus = "pending_transport_approval"
	OrderStatusConfirmed         OrderStatus = "confirmed"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

// IsValid checks if the status is a known value.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPendingTransport, OrderStatusConfirmed,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsFinal reports whether no further order transitions are allowed.
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus is the payment lifecycle of a sales order.
type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusPendingFinance PaymentStatus = "pending_finance_approval"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusRejected       PaymentStatus = "rejected"
)

// IsValid checks if the status is a known value.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPendingFinance, PaymentStatusPaid, PaymentStatusRejected:
		return true
	default:
		return false
	}
}

// DeliveryType classifies how an order is fulfilled.
type DeliveryType string

const (
	DeliveryTypePickup          DeliveryType = "pickup"
	DeliveryTypePartLoad        DeliveryType = "part load"
	DeliveryTypeCompanyDelivery DeliveryType = "company delivery"
)

// RequiresTransportApproval reports whether the transport department must
// sign off on the quoted cost before the order confirms.
func (d DeliveryType) RequiresTransportApproval() bool {
	return d == DeliveryTypePartLoad || d == DeliveryTypeCompanyDelivery
}

// ApprovalStatus is the lifecycle of a transport approval request. The
// request row is owned by its sales order.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// SalesOrder is the root aggregate. AmountPaid + BalanceAmount must equal
// FinalAmount after every transition.
type SalesOrder struct {
	ID                int64         `json:"id" db:"id"`
	OrderNumber       string        `json:"order_number" db:"order_number"`
	CustomerName      string        `json:"customer_name" db:"customer_name"`
	CustomerContact   *string       `json:"customer_contact,omitempty" db:"customer_contact"`
	CustomerEmail     *string       `json:"customer_email,omitempty" db:"customer_email"`
	CustomerAddress   *string       `json:"customer_address,omitempty" db:"customer_address"`
	ShowroomProductID int64         `json:"showroom_product_id" db:"showroom_product_id"`
	Quantity          int           `json:"quantity" db:"quantity"`
	UnitPrice         float64       `json:"unit_price" db:"unit_price"`
	TotalAmount       float64       `json:"total_amount" db:"total_amount"`
	DiscountAmount    float64       `json:"discount_amount" db:"discount_amount"`
	TransportCost     float64       `json:"transport_cost" db:"transport_cost"`
	FinalAmount       float64       `json:"final_amount" db:"final_amount"`
	AmountPaid        float64       `json:"amount_paid" db:"amount_paid"`
	BalanceAmount     float64       `json:"balance_amount" db:"balance_amount"`
	PaymentMethod     string        `json:"payment_method" db:"payment_method"`
	PaymentStatus     PaymentStatus `json:"payment_status" db:"payment_status"`
	OrderStatus       OrderStatus   `json:"order_status" db:"order_status"`
	DeliveryType      DeliveryType  `json:"delivery_type" db:"delivery_type"`
	SalesPerson       string        `json:"sales_person" db:"sales_person"`
	Notes             *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// TransportDemand is the order-side view of a transport approval request,
// used when sales responds to a rejected cost demand.
type TransportDemand struct {
	ID                    int64          `json:"id" db:"id"`
	SalesOrderID          int64          `json:"sales_order_id" db:"sales_order_id"`
	DeliveryType          DeliveryType   `json:"delivery_type" db:"delivery_type"`
	OriginalTransportCost float64        `json:"original_transport_cost" db:"original_transport_cost"`
	DemandAmount          *float64       `json:"demand_amount,omitempty" db:"demand_amount"`
	TransportNotes        *string        `json:"transport_notes,omitempty" db:"transport_notes"`
	Status                ApprovalStatus `json:"status" db:"status"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at" db:"updated_at"`
}

// DemandAction is the sales response to a rejected transport demand.
type DemandAction string

const (
	DemandActionAccept DemandAction = "accept_demand"
	DemandActionReject DemandAction = "reject_demand"
)

// ComputeFinalAmount derives the invoiced amount. TotalAmount covers goods
// only; transport is added on top, discount taken off.
func ComputeFinalAmount(totalAmount, discountAmount, transportCost float64) float64 {
	return totalAmount - discountAmount + transportCost
}
