package showroom

// AddProductRequest puts a unit on the showroom floor.
type AddProductRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	SKU      string  `json:"sku" validate:"required,max=60"`
	Category string  `json:"category" validate:"required,max=100"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Notes    *string `json:"notes,omitempty"`
}

// CreateDispatchRequest opens a dispatch for a sold unit.
type CreateDispatchRequest struct {
	SalesOrderID      int64   `json:"sales_order_id" validate:"required,gt=0"`
	ShowroomProductID int64   `json:"showroom_product_id" validate:"required,gt=0"`
	Notes             *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// DispatchPickupRequest hands the pickup to the gate with the customer
// details the watchman will verify against.
type DispatchPickupRequest struct {
	CustomerName  string  `json:"customer_name" validate:"required,max=200"`
	CustomerPhone string  `json:"customer_phone" validate:"required,max=30"`
	VehicleNumber *string `json:"vehicle_number,omitempty" validate:"omitempty,max=30"`
	PhotoRef      *string `json:"photo_ref,omitempty" validate:"omitempty,max=300"`
}
