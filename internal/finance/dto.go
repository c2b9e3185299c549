package finance

// SubmitPaymentRequest records a customer payment for finance review.
type SubmitPaymentRequest struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod   string  `json:"payment_method" validate:"required,max=50"`
	ReferenceNumber *string `json:"reference_number,omitempty" validate:"omitempty,max=100"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=500"`
	IdempotencyKey  string  `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
}

// DecidePaymentRequest is the finance verdict on a pending transaction.
type DecidePaymentRequest struct {
	Approved bool    `json:"approved"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}
