package sales

import "time"

// CreateSalesOrderRequest is the payload for placing an order.
type CreateSalesOrderRequest struct {
	CustomerName      string   `json:"customer_name" validate:"required,max=200"`
	CustomerContact   *string  `json:"customer_contact,omitempty" validate:"omitempty,max=100"`
	CustomerEmail     *string  `json:"customer_email,omitempty" validate:"omitempty,email,max=200"`
	CustomerAddress   *string  `json:"customer_address,omitempty" validate:"omitempty,max=400"`
	ShowroomProductID int64    `json:"showroom_product_id" validate:"required,gt=0"`
	Quantity          int      `json:"quantity" validate:"required,gt=0"`
	UnitPrice         float64  `json:"unit_price" validate:"required,gt=0"`
	DiscountAmount    float64  `json:"discount_amount" validate:"gte=0"`
	TransportCost     float64  `json:"transport_cost" validate:"gte=0"`
	PaymentMethod     string   `json:"payment_method" validate:"required,max=50"`
	DeliveryType      string   `json:"delivery_type" validate:"required,oneof=pickup 'part load' 'company delivery'"`
	SalesPerson       string   `json:"sales_person" validate:"required,max=100"`
	Notes             *string  `json:"notes,omitempty"`
}

// ConfirmDemandRequest carries the sales response to a rejected demand.
type ConfirmDemandRequest struct {
	Action string `json:"action" validate:"required,oneof=accept_demand reject_demand"`
}

// ListSalesOrdersRequest filters the order listing.
type ListSalesOrdersRequest struct {
	OrderStatus   *OrderStatus   `json:"order_status,omitempty"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	DateFrom      *time.Time     `json:"date_from,omitempty"`
	DateTo        *time.Time     `json:"date_to,omitempty"`
	Search        *string        `json:"search,omitempty"`
	Limit         int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset        int            `json:"offset" validate:"gte=0"`
}
