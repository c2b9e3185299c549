package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for sales orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations of the order aggregate.
// Every workflow write locks the order row first so concurrent transitions
// on the same order serialize.
type TxRepository interface {
	CreateOrder(ctx context.Context, o SalesOrder) (int64, error)
	InsertTransportApproval(ctx context.Context, orderID int64, dt DeliveryType, originalCost float64) (int64, error)
	GetOrderForUpdate(ctx context.Context, id int64) (*SalesOrder, error)
	GetDemandForUpdate(ctx context.Context, requestID int64) (*TransportDemand, error)
	UpdateDemandStatus(ctx context.Context, requestID int64, status ApprovalStatus) error
	UpdateOrderTransport(ctx context.Context, id int64, transportCost, finalAmount, balanceAmount float64) error
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error
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

const orderColumns = `id, order_number, customer_name, customer_contact, customer_email,
customer_address, showroom_product_id, quantity, unit_price, total_amount,
discount_amount, transport_cost, final_amount, amount_paid, balance_amount,
payment_method, payment_status, order_status, delivery_type, sales_person,
notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerContact, &o.CustomerEmail,
		&o.CustomerAddress, &o.ShowroomProductID, &o.Quantity, &o.UnitPrice, &o.TotalAmount,
		&o.DiscountAmount, &o.TransportCost, &o.FinalAmount, &o.AmountPaid, &o.BalanceAmount,
		&o.PaymentMethod, &o.PaymentStatus, &o.OrderStatus, &o.DeliveryType, &o.SalesPerson,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// GetOrder retrieves a sales order by ID.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*SalesOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales_orders WHERE id = $1`, orderColumns)
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

// GetOrderByNumber retrieves a sales order by its unique order number.
func (r *Repository) GetOrderByNumber(ctx context.Context, number string) (*SalesOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales_orders WHERE order_number = $1`, orderColumns)
	return scanOrder(r.pool.QueryRow(ctx, query, number))
}

// List returns orders matching the filters. An empty result is a nil-free
// empty slice, never an error.
func (r *Repository) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.OrderStatus != nil {
		conditions = append(conditions, fmt.Sprintf("order_status = $%d", argPos))
		args = append(args, *req.OrderStatus)
		argPos++
	}
	if req.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argPos))
		args = append(args, *req.PaymentStatus)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(order_number ILIKE $%d OR customer_name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sales_orders %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM sales_orders %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]SalesOrder, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

// GenerateOrderNumber produces SO-{YYMM}-{SEQ}.
func (r *Repository) GenerateOrderNumber(ctx context.Context, date time.Time) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM sales_orders").Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%s-%04d", date.Format("0601"), count+1), nil
}

// --- transactional operations ---

func (t *txRepo) CreateOrder(ctx context.Context, o SalesOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sales_orders (
			order_number, customer_name, customer_contact, customer_email, customer_address,
			showroom_product_id, quantity, unit_price, total_amount, discount_amount,
			transport_cost, final_amount, amount_paid, balance_amount, payment_method,
			payment_status, order_status, delivery_type, sales_person, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,NOW(),NOW())
		RETURNING id`,
		o.OrderNumber, o.CustomerName, o.CustomerContact, o.CustomerEmail, o.CustomerAddress,
		o.ShowroomProductID, o.Quantity, o.UnitPrice, o.TotalAmount, o.DiscountAmount,
		o.TransportCost, o.FinalAmount, o.AmountPaid, o.BalanceAmount, o.PaymentMethod,
		o.PaymentStatus, o.OrderStatus, o.DeliveryType, o.SalesPerson, o.Notes,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: order number %s", shared.ErrDuplicate, o.OrderNumber)
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) InsertTransportApproval(ctx context.Context, orderID int64, dt DeliveryType, originalCost float64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO transport_approval_requests (
			sales_order_id, delivery_type, original_transport_cost, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`,
		orderID, dt, originalCost, ApprovalStatusPending,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: open approval request for order %d", shared.ErrDuplicate, orderID)
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (*SalesOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales_orders WHERE id = $1 FOR UPDATE`, orderColumns)
	return scanOrder(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) GetDemandForUpdate(ctx context.Context, requestID int64) (*TransportDemand, error) {
	var d TransportDemand
	err := t.tx.QueryRow(ctx, `
		SELECT id, sales_order_id, delivery_type, original_transport_cost, demand_amount,
		       transport_notes, status, created_at, updated_at
		FROM transport_approval_requests WHERE id = $1 FOR UPDATE`, requestID,
	).Scan(
		&d.ID, &d.SalesOrderID, &d.DeliveryType, &d.OriginalTransportCost, &d.DemandAmount,
		&d.TransportNotes, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (t *txRepo) UpdateDemandStatus(ctx context.Context, requestID int64, status ApprovalStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE transport_approval_requests SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, requestID)
	return err
}

func (t *txRepo) UpdateOrderTransport(ctx context.Context, id int64, transportCost, finalAmount, balanceAmount float64) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE sales_orders
		SET transport_cost = $1, final_amount = $2, balance_amount = $3, updated_at = NOW()
		WHERE id = $4`,
		transportCost, finalAmount, balanceAmount, id)
	return err
}

func (t *txRepo) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE sales_orders SET order_status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}
