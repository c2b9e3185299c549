package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for finance
// transactions. Payment decisions write through to sales_orders in the same
// transaction so amount_paid and balance_amount never drift from the ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations.
type TxRepository interface {
	GetOrderForUpdate(ctx context.Context, orderID int64) (*sales.SalesOrder, error)
	CreateTransaction(ctx context.Context, txn Transaction) (int64, error)
	GetTransactionForUpdate(ctx context.Context, txnID int64) (*Transaction, error)
	DecideTransaction(ctx context.Context, txnID int64, status TxnStatus, notes *string, decidedBy int64, decidedAt time.Time) error
	UpdateOrderPayment(ctx context.Context, orderID int64, amountPaid, balanceAmount float64, status sales.PaymentStatus) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const txnColumns = `id, sales_order_id, txn_type, amount, payment_method, reference_number,
status, notes, submitted_by, decided_by, decided_at, created_at, updated_at`

func scanTxn(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.SalesOrderID, &t.TxnType, &t.Amount, &t.PaymentMethod, &t.ReferenceNumber,
		&t.Status, &t.Notes, &t.SubmittedBy, &t.DecidedBy, &t.DecidedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetTransaction retrieves one transaction.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM finance_transactions WHERE id = $1`, txnColumns)
	return scanTxn(r.pool.QueryRow(ctx, query, id))
}

// ListOrderTransactions returns every transaction of one order, oldest
// first.
func (r *Repository) ListOrderTransactions(ctx context.Context, orderID int64) ([]Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM finance_transactions WHERE sales_order_id = $1 ORDER BY created_at`, txnColumns)
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

// ListPendingApprovals returns pending transactions joined with order
// context, oldest first so the queue drains in order.
func (r *Repository) ListPendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.sales_order_id, t.txn_type, t.amount, t.payment_method, t.reference_number,
		       t.status, t.notes, t.submitted_by, t.decided_by, t.decided_at, t.created_at, t.updated_at,
		       o.order_number, o.customer_name, o.final_amount, o.amount_paid, o.balance_amount
		FROM finance_transactions t
		JOIN sales_orders o ON o.id = t.sales_order_id
		WHERE t.status = $1
		ORDER BY t.created_at`, TxnStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	approvals := make([]PendingApproval, 0)
	for rows.Next() {
		var p PendingApproval
		if err := rows.Scan(
			&p.ID, &p.SalesOrderID, &p.TxnType, &p.Amount, &p.PaymentMethod, &p.ReferenceNumber,
			&p.Status, &p.Notes, &p.SubmittedBy, &p.DecidedBy, &p.DecidedAt, &p.CreatedAt, &p.UpdatedAt,
			&p.OrderNumber, &p.CustomerName, &p.FinalAmount, &p.AmountPaid, &p.BalanceAmount,
		); err != nil {
			return nil, err
		}
		approvals = append(approvals, p)
	}
	return approvals, rows.Err()
}

// --- transactional operations ---

func (t *txRepo) GetOrderForUpdate(ctx context.Context, orderID int64) (*sales.SalesOrder, error) {
	var o sales.SalesOrder
	err := t.tx.QueryRow(ctx, `
		SELECT id, order_number, final_amount, amount_paid, balance_amount, payment_status, order_status
		FROM sales_orders WHERE id = $1 FOR UPDATE`, orderID,
	).Scan(&o.ID, &o.OrderNumber, &o.FinalAmount, &o.AmountPaid, &o.BalanceAmount, &o.PaymentStatus, &o.OrderStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (t *txRepo) CreateTransaction(ctx context.Context, txn Transaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO finance_transactions (sales_order_id, txn_type, amount, payment_method, reference_number, status, notes, submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`,
		txn.SalesOrderID, txn.TxnType, txn.Amount, txn.PaymentMethod, txn.ReferenceNumber, txn.Status, txn.Notes, txn.SubmittedBy,
	).Scan(&id)
	return id, err
}

func (t *txRepo) GetTransactionForUpdate(ctx context.Context, txnID int64) (*Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM finance_transactions WHERE id = $1 FOR UPDATE`, txnColumns)
	return scanTxn(t.tx.QueryRow(ctx, query, txnID))
}

func (t *txRepo) DecideTransaction(ctx context.Context, txnID int64, status TxnStatus, notes *string, decidedBy int64, decidedAt time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE finance_transactions
		SET status = $1, notes = COALESCE($2, notes), decided_by = $3, decided_at = $4, updated_at = NOW()
		WHERE id = $5`,
		status, notes, decidedBy, decidedAt, txnID)
	return err
}

func (t *txRepo) UpdateOrderPayment(ctx context.Context, orderID int64, amountPaid, balanceAmount float64, status sales.PaymentStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE sales_orders
		SET amount_paid = $1, balance_amount = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $4`,
		amountPaid, balanceAmount, status, orderID)
	return err
}
