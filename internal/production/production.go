package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// OrderStatus is the lifecycle of a production order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
)

// Order is one manufacturing run.
type Order struct {
	ID          int64       `json:"id" db:"id"`
	ProductName string      `json:"product_name" db:"product_name"`
	Quantity    int         `json:"quantity" db:"quantity"`
	Status      OrderStatus `json:"status" db:"status"`
	CreatedBy   int64       `json:"created_by" db:"created_by"`
	StartedAt   *time.Time  `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	Notes       *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// CreateOrderRequest opens a production run.
type CreateOrderRequest struct {
	ProductName string  `json:"product_name" validate:"required,max=200"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Notes       *string `json:"notes,omitempty"`
}

// Repository provides PostgreSQL backed persistence for production orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status OrderStatus, startedAt, completedAt *time.Time) error
	Create(ctx context.Context, o Order) (int64, error)
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

const orderColumns = `id, product_name, quantity, status, created_by, started_at, completed_at, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.ProductName, &o.Quantity, &o.Status, &o.CreatedBy, &o.StartedAt, &o.CompletedAt, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Get retrieves one production order.
func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM production_orders WHERE id = $1`, orderColumns)
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

// List returns production orders, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM production_orders ORDER BY created_at DESC`, orderColumns)
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

func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM production_orders WHERE id = $1 FOR UPDATE`, orderColumns)
	return scanOrder(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status OrderStatus, startedAt, completedAt *time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE production_orders
		SET status = $1, started_at = COALESCE($2, started_at), completed_at = COALESCE($3, completed_at), updated_at = NOW()
		WHERE id = $4`,
		status, startedAt, completedAt, id)
	return err
}

func (t *txRepo) Create(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO production_orders (product_name, quantity, status, created_by, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id`,
		o.ProductName, o.Quantity, o.Status, o.CreatedBy, o.Notes,
	).Scan(&id)
	return id, err
}

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context) ([]Order, error)
}

// Service implements the production workflow.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the production service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger, now: time.Now}
}

// Create opens a production run.
func (s *Service) Create(ctx context.Context, actor *shared.Actor, req CreateOrderRequest) (*Order, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	order := Order{
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Status:      StatusPending,
		CreatedBy:   actor.UserID,
		Notes:       req.Notes,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Create(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("production order created", slog.Int64("order_id", order.ID))
	return &order, nil
}

// Start moves a pending order onto the floor.
func (s *Service) Start(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, StatusPending, StatusInProgress)
}

// Complete finishes an in-progress order.
func (s *Service) Complete(ctx context.Context, id int64) (*Order, error) {
	return s.transition(ctx, id, StatusInProgress, StatusCompleted)
}

func (s *Service) transition(ctx context.Context, id int64, from, to OrderStatus) (*Order, error) {
	var updated *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != from {
			return fmt.Errorf("%w: production order %d is %s, not %s", shared.ErrInvalidState, id, order.Status, from)
		}

		now := s.now()
		var startedAt, completedAt *time.Time
		switch to {
		case StatusInProgress:
			startedAt = &now
			order.StartedAt = &now
		case StatusCompleted:
			completedAt = &now
			order.CompletedAt = &now
		}
		if err := tx.UpdateStatus(ctx, id, to, startedAt, completedAt); err != nil {
			return err
		}
		order.Status = to
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("production order transitioned", slog.Int64("order_id", id), slog.String("status", string(to)))
	return updated, nil
}

// Get fetches one production order.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns all production orders.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}
