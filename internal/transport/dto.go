package transport

import "time"

// RejectApprovalRequest carries the transport counter-demand.
type RejectApprovalRequest struct {
	DemandAmount   float64 `json:"demand_amount" validate:"required,gt=0"`
	TransportNotes *string `json:"transport_notes,omitempty" validate:"omitempty,max=500"`
}

// AddVehicleRequest registers a fleet vehicle.
type AddVehicleRequest struct {
	VehicleNumber string  `json:"vehicle_number" validate:"required,max=30"`
	VehicleType   string  `json:"vehicle_type" validate:"required,max=50"`
	CapacityKg    float64 `json:"capacity_kg" validate:"required,gt=0"`
	DriverName    string  `json:"driver_name" validate:"required,max=100"`
	DriverContact string  `json:"driver_contact" validate:"required,max=30"`
	Notes         *string `json:"notes,omitempty"`
}

// SetVehicleStatusRequest toggles a vehicle in and out of maintenance.
type SetVehicleStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=available maintenance"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// AssignVehicleRequest binds a vehicle to a pending job.
type AssignVehicleRequest struct {
	VehicleID     int64      `json:"vehicle_id" validate:"required,gt=0"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
}
