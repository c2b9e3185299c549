package transport

import "time"

// ApprovalStatus mirrors the lifecycle of a transport approval request.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// ApprovalRequest is a transport cost sign-off raised by sales. Rejection
// carries a demand amount the transport side wants charged instead.
type ApprovalRequest struct {
	ID                    int64          `json:"id" db:"id"`
	SalesOrderID          int64          `json:"sales_order_id" db:"sales_order_id"`
	DeliveryType          string         `json:"delivery_type" db:"delivery_type"`
	OriginalTransportCost float64        `json:"original_transport_cost" db:"original_transport_cost"`
	DemandAmount          *float64       `json:"demand_amount,omitempty" db:"demand_amount"`
	TransportNotes        *string        `json:"transport_notes,omitempty" db:"transport_notes"`
	Status                ApprovalStatus `json:"status" db:"status"`
	DecidedBy             *int64         `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt             *time.Time     `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at" db:"updated_at"`
}

// ApprovalView joins the request with the order fields the transport desk
// needs to decide.
type ApprovalView struct {
	ApprovalRequest
	OrderNumber     string  `json:"order_number" db:"order_number"`
	CustomerName    string  `json:"customer_name" db:"customer_name"`
	CustomerAddress *string `json:"customer_address,omitempty" db:"customer_address"`
	FinalAmount     float64 `json:"final_amount" db:"final_amount"`
}

// VehicleStatus is the fleet availability state of one vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusAssigned    VehicleStatus = "assigned"
	VehicleStatusInTransit   VehicleStatus = "in_transit"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// IsValid checks if the status is a known value.
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusAssigned, VehicleStatusInTransit, VehicleStatusMaintenance:
		return true
	default:
		return false
	}
}

// Vehicle is one unit of the delivery fleet. A vehicle holds at most one
// active job at a time.
type Vehicle struct {
	ID            int64         `json:"id" db:"id"`
	VehicleNumber string        `json:"vehicle_number" db:"vehicle_number"`
	VehicleType   string        `json:"vehicle_type" db:"vehicle_type"`
	CapacityKg    float64       `json:"capacity_kg" db:"capacity_kg"`
	DriverName    string        `json:"driver_name" db:"driver_name"`
	DriverContact string        `json:"driver_contact" db:"driver_contact"`
	Status        VehicleStatus `json:"status" db:"status"`
	Notes         *string       `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// JobStatus is the lifecycle of a transport job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusAssigned  JobStatus = "assigned"
	JobStatusInTransit JobStatus = "in_transit"
	JobStatusDelivered JobStatus = "delivered"
)

// Job is a scheduled delivery for a confirmed order. Driver fields are
// snapshotted at assignment so later fleet edits do not rewrite history.
type Job struct {
	ID                 int64      `json:"id" db:"id"`
	SalesOrderID       int64      `json:"sales_order_id" db:"sales_order_id"`
	VehicleID          *int64     `json:"vehicle_id,omitempty" db:"vehicle_id"`
	DriverName         *string    `json:"driver_name,omitempty" db:"driver_name"`
	DriverContact      *string    `json:"driver_contact,omitempty" db:"driver_contact"`
	Status             JobStatus  `json:"status" db:"status"`
	ScheduledDate      *time.Time `json:"scheduled_date,omitempty" db:"scheduled_date"`
	ActualDeliveryDate *time.Time `json:"actual_delivery_date,omitempty" db:"actual_delivery_date"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}
