package gate

// VerifyIdentityRequest is the claimed identity presented at the gate.
type VerifyIdentityRequest struct {
	ClaimedName  string `json:"claimed_name" validate:"required,max=200"`
	ClaimedPhone string `json:"claimed_phone" validate:"required,max=30"`
	Action       string `json:"action" validate:"required,oneof=release send_in"`
}

// RejectPickupRequest refuses a pickup at the gate.
type RejectPickupRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RegisterPersonRequest books a visitor into the ledger.
type RegisterPersonRequest struct {
	PersonName string  `json:"person_name" validate:"required,max=200"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	PhotoRef   *string `json:"photo_ref,omitempty" validate:"omitempty,max=300"`
}

// ManualLogRequest records entry/exit and going-out/coming-back movements.
type ManualLogRequest struct {
	PersonName string  `json:"person_name" validate:"required,max=200"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Reason     *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
