package gate

import "time"

// PassStatus is the lifecycle of a gate pass.
type PassStatus string

const (
	PassStatusPendingVerification PassStatus = "pending_verification"
	PassStatusReleased            PassStatus = "released"
	PassStatusRejected            PassStatus = "rejected"
)

// GatePass authorizes a customer pickup at the gate. The watchman verifies
// the claimed identity against this record before anything leaves.
type GatePass struct {
	ID                int64      `json:"id" db:"id"`
	DispatchRequestID *int64     `json:"dispatch_request_id,omitempty" db:"dispatch_request_id"`
	SalesOrderID      *int64     `json:"sales_order_id,omitempty" db:"sales_order_id"`
	CustomerName      string     `json:"customer_name" db:"customer_name"`
	CustomerPhone     string     `json:"customer_phone" db:"customer_phone"`
	VehicleNumber     *string    `json:"vehicle_number,omitempty" db:"vehicle_number"`
	PhotoRef          *string    `json:"photo_ref,omitempty" db:"photo_ref"`
	Status            PassStatus `json:"status" db:"status"`
	VerifiedBy        *int64     `json:"verified_by,omitempty" db:"verified_by"`
	RejectionReason   *string    `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// VerifyOutcome is the result of an identity check. A mismatch is a
// legitimate outcome, not an error.
type VerifyOutcome string

const (
	OutcomeReleased         VerifyOutcome = "released"
	OutcomeSentIn           VerifyOutcome = "sent_in"
	OutcomeIdentityMismatch VerifyOutcome = "identity_mismatch"
)

// VerifyResult reports what happened at the gate.
type VerifyResult struct {
	Outcome  VerifyOutcome `json:"outcome"`
	GatePass *GatePass     `json:"gate_pass"`
}

// LogKind classifies a gate ledger entry.
type LogKind string

const (
	LogKindRegister    LogKind = "register"
	LogKindManualEntry LogKind = "manual_entry"
	LogKindManualExit  LogKind = "manual_exit"
	LogKindGoingOut    LogKind = "going_out"
	LogKindComingBack  LogKind = "coming_back"
)

// IsValid checks if the kind is a known value.
func (k LogKind) IsValid() bool {
	switch k {
	case LogKindRegister, LogKindManualEntry, LogKindManualExit, LogKindGoingOut, LogKindComingBack:
		return true
	default:
		return false
	}
}

// GateLog is one line of the visitor ledger the watchman keeps.
type GateLog struct {
	ID         int64     `json:"id" db:"id"`
	Kind       LogKind   `json:"kind" db:"kind"`
	PersonName string    `json:"person_name" db:"person_name"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	PhotoRef   *string   `json:"photo_ref,omitempty" db:"photo_ref"`
	Reason     *string   `json:"reason,omitempty" db:"reason"`
	LoggedBy   int64     `json:"logged_by" db:"logged_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DailySummary aggregates gate activity for one day.
type DailySummary struct {
	Date            string `json:"date"`
	PendingPasses   int    `json:"pending_passes"`
	ReleasedToday   int    `json:"released_today"`
	RejectedToday   int    `json:"rejected_today"`
	EntriesToday    int    `json:"entries_today"`
	CurrentlyInside int    `json:"currently_inside"`
}
