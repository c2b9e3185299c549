package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// OrderStatus is the lifecycle of a purchase order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusApproved  OrderStatus = "approved"
	StatusReceived  OrderStatus = "received"
	StatusCancelled OrderStatus = "cancelled"
)

// Order is one supplier purchase. Receiving stock against an inventory item
// bumps the store quantity in the same transaction.
type Order struct {
	ID              int64       `json:"id" db:"id"`
	PONumber        string      `json:"po_number" db:"po_number"`
	SupplierName    string      `json:"supplier_name" db:"supplier_name"`
	ItemName        string      `json:"item_name" db:"item_name"`
	InventoryItemID *int64      `json:"inventory_item_id,omitempty" db:"inventory_item_id"`
	Quantity        float64     `json:"quantity" db:"quantity"`
	UnitCost        float64     `json:"unit_cost" db:"unit_cost"`
	TotalCost       float64     `json:"total_cost" db:"total_cost"`
	Status          OrderStatus `json:"status" db:"status"`
	CreatedBy       int64       `json:"created_by" db:"created_by"`
	ApprovedBy      *int64      `json:"approved_by,omitempty" db:"approved_by"`
	ReceivedAt      *time.Time  `json:"received_at,omitempty" db:"received_at"`
	Notes           *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// CreateOrderRequest opens a purchase order.
type CreateOrderRequest struct {
	SupplierName    string  `json:"supplier_name" validate:"required,max=200"`
	ItemName        string  `json:"item_name" validate:"required,max=200"`
	InventoryItemID *int64  `json:"inventory_item_id,omitempty" validate:"omitempty,gt=0"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	UnitCost        float64 `json:"unit_cost" validate:"required,gt=0"`
	Notes           *string `json:"notes,omitempty"`
}

// Repository provides PostgreSQL backed persistence for purchase orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations.
type TxRepository interface {
	Create(ctx context.Context, o Order) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status OrderStatus, approvedBy *int64, receivedAt *time.Time) error
	AddInventoryStock(ctx context.Context, itemID int64, quantity float64) error
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

const orderColumns = `id, po_number, supplier_name, item_name, inventory_item_id, quantity,
unit_cost, total_cost, status, created_by, approved_by, received_at, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.PONumber, &o.SupplierName, &o.ItemName, &o.InventoryItemID, &o.Quantity,
		&o.UnitCost, &o.TotalCost, &o.Status, &o.CreatedBy, &o.ApprovedBy, &o.ReceivedAt, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Get retrieves one purchase order.
func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_orders WHERE id = $1`, orderColumns)
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

// List returns purchase orders, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_orders ORDER BY created_at DESC`, orderColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// NextPONumber produces PO-{YYMM}-{SEQ}.
func (r *Repository) NextPONumber(ctx context.Context, date time.Time) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM purchase_orders").Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%s-%04d", date.Format("0601"), count+1), nil
}

func (t *txRepo) Create(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (po_number, supplier_name, item_name, inventory_item_id, quantity, unit_cost, total_cost, status, created_by, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id`,
		o.PONumber, o.SupplierName, o.ItemName, o.InventoryItemID, o.Quantity, o.UnitCost, o.TotalCost, o.Status, o.CreatedBy, o.Notes,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: po number %s", shared.ErrDuplicate, o.PONumber)
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_orders WHERE id = $1 FOR UPDATE`, orderColumns)
	return scanOrder(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status OrderStatus, approvedBy *int64, receivedAt *time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $1, approved_by = COALESCE($2, approved_by), received_at = COALESCE($3, received_at), updated_at = NOW()
		WHERE id = $4`,
		status, approvedBy, receivedAt, id)
	return err
}

func (t *txRepo) AddInventoryStock(ctx context.Context, itemID int64, quantity float64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE store_inventory SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2`,
		quantity, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: inventory item %d", shared.ErrNotFound, itemID)
	}
	return nil
}

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	NextPONumber(ctx context.Context, date time.Time) (string, error)
}

// ApprovalHistoryPort appends to the cross-department approval ledger.
type ApprovalHistoryPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service implements the purchase workflow.
type Service struct {
	repo      RepositoryPort
	approvals ApprovalHistoryPort
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the purchase service.
func NewService(repo RepositoryPort, approvals ApprovalHistoryPort, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		approvals: approvals,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// Create opens a purchase order.
func (s *Service) Create(ctx context.Context, actor *shared.Actor, req CreateOrderRequest) (*Order, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	order := Order{
		SupplierName:    req.SupplierName,
		ItemName:        req.ItemName,
		InventoryItemID: req.InventoryItemID,
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
		TotalCost:       req.Quantity * req.UnitCost,
		Status:          StatusPending,
		CreatedBy:       actor.UserID,
		Notes:           req.Notes,
	}
	// PO numbers derive from a row count, so concurrent creates can draw the
	// same number. Retry with a fresh number when the unique index objects.
	for attempt := 1; ; attempt++ {
		poNumber, err := s.repo.NextPONumber(ctx, s.now())
		if err != nil {
			return nil, fmt.Errorf("generate po number: %w", err)
		}
		order.PONumber = poNumber

		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			id, err := tx.Create(ctx, order)
			if err != nil {
				return err
			}
			order.ID = id
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, shared.ErrDuplicate) && attempt < 3 {
			continue
		}
		return nil, err
	}
	s.logger.Info("purchase order created", slog.Int64("po_id", order.ID), slog.String("po_number", order.PONumber))
	return &order, nil
}

// Approve accepts a pending purchase order.
func (s *Service) Approve(ctx context.Context, actor *shared.Actor, id int64) (*Order, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}

	var approved *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusPending {
			return fmt.Errorf("%w: purchase order %s is %s, not pending", shared.ErrInvalidState, order.PONumber, order.Status)
		}
		if err := tx.UpdateStatus(ctx, id, StatusApproved, &actor.UserID, nil); err != nil {
			return err
		}
		order.Status = StatusApproved
		order.ApprovedBy = &actor.UserID
		approved = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.approvals != nil {
		entry := shared.ApprovalLog{Module: "purchase_order", RefID: id, ActorID: actor.UserID, Action: shared.ApprovalApprove}
		if err := s.approvals.Record(ctx, entry); err != nil {
			s.logger.Error("record approval history", slog.Any("error", err))
		}
	}
	return approved, nil
}

// Receive books the goods in. A linked inventory item gains the quantity in
// the same transaction.
func (s *Service) Receive(ctx context.Context, actor *shared.Actor, id int64) (*Order, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}

	var received *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusApproved {
			return fmt.Errorf("%w: purchase order %s is %s, not approved", shared.ErrInvalidState, order.PONumber, order.Status)
		}

		receivedAt := s.now()
		if err := tx.UpdateStatus(ctx, id, StatusReceived, nil, &receivedAt); err != nil {
			return err
		}
		if order.InventoryItemID != nil {
			if err := tx.AddInventoryStock(ctx, *order.InventoryItemID, order.Quantity); err != nil {
				return err
			}
		}
		order.Status = StatusReceived
		order.ReceivedAt = &receivedAt
		received = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("purchase order received", slog.Int64("po_id", id))
	return received, nil
}

// Cancel voids a pending purchase order.
func (s *Service) Cancel(ctx context.Context, actor *shared.Actor, id int64) (*Order, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}

	var cancelled *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusPending {
			return fmt.Errorf("%w: purchase order %s is %s, not pending", shared.ErrInvalidState, order.PONumber, order.Status)
		}
		if err := tx.UpdateStatus(ctx, id, StatusCancelled, nil, nil); err != nil {
			return err
		}
		order.Status = StatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Get fetches one purchase order.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns all purchase orders.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}
