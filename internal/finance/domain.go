package finance

import "time"

// TxnType classifies a finance transaction.
type TxnType string

const (
	TxnTypePayment TxnType = "payment"
	TxnTypeRefund  TxnType = "refund"
)

// TxnStatus is the approval state of a transaction.
type TxnStatus string

const (
	TxnStatusPending  TxnStatus = "pending"
	TxnStatusApproved TxnStatus = "approved"
	TxnStatusRejected TxnStatus = "rejected"
)

// Transaction is one payment (or refund) recorded against a sales order.
// Amounts apply to the order only when finance approves.
type Transaction struct {
	ID              int64      `json:"id" db:"id"`
	SalesOrderID    int64      `json:"sales_order_id" db:"sales_order_id"`
	TxnType         TxnType    `json:"txn_type" db:"txn_type"`
	Amount          float64    `json:"amount" db:"amount"`
	PaymentMethod   string     `json:"payment_method" db:"payment_method"`
	ReferenceNumber *string    `json:"reference_number,omitempty" db:"reference_number"`
	Status          TxnStatus  `json:"status" db:"status"`
	Notes           *string    `json:"notes,omitempty" db:"notes"`
	SubmittedBy     int64      `json:"submitted_by" db:"submitted_by"`
	DecidedBy       *int64     `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt       *time.Time `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// PendingApproval joins a pending transaction with the order fields the
// finance desk reviews.
type PendingApproval struct {
	Transaction
	OrderNumber   string  `json:"order_number" db:"order_number"`
	CustomerName  string  `json:"customer_name" db:"customer_name"`
	FinalAmount   float64 `json:"final_amount" db:"final_amount"`
	AmountPaid    float64 `json:"amount_paid" db:"amount_paid"`
	BalanceAmount float64 `json:"balance_amount" db:"balance_amount"`
}
