package inventory

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

// Item is one stock row in the store.
type Item struct {
	ID           int64     `json:"id" db:"id"`
	ItemName     string    `json:"item_name" db:"item_name"`
	SKU          string    `json:"sku" db:"sku"`
	Quantity     float64   `json:"quantity" db:"quantity"`
	Unit         string    `json:"unit" db:"unit"`
	ReorderLevel float64   `json:"reorder_level" db:"reorder_level"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AddItemRequest registers a stock row.
type AddItemRequest struct {
	ItemName     string  `json:"item_name" validate:"required,max=200"`
	SKU          string  `json:"sku" validate:"required,max=60"`
	Unit         string  `json:"unit" validate:"required,max=20"`
	ReorderLevel float64 `json:"reorder_level" validate:"gte=0"`
}

// AdjustRequest moves stock in or out of the store.
type AdjustRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Reason   *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// Repository provides PostgreSQL backed persistence for store stock.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*Item, error)
	SetQuantity(ctx context.Context, id int64, quantity float64) error
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

const itemColumns = `id, item_name, sku, quantity, unit, reorder_level, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.ItemName, &it.SKU, &it.Quantity, &it.Unit, &it.ReorderLevel, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// Create registers a stock row with zero quantity.
func (r *Repository) Create(ctx context.Context, it Item) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO store_inventory (item_name, sku, quantity, unit, reorder_level, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $4, NOW(), NOW())
		RETURNING id`,
		it.ItemName, it.SKU, it.Unit, it.ReorderLevel,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: sku %s", shared.ErrDuplicate, it.SKU)
		}
		return 0, err
	}
	return id, nil
}

// Get retrieves one stock row.
func (r *Repository) Get(ctx context.Context, id int64) (*Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM store_inventory WHERE id = $1`, itemColumns)
	return scanItem(r.pool.QueryRow(ctx, query, id))
}

// List returns all stock rows.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM store_inventory ORDER BY item_name`, itemColumns)
	return r.queryItems(ctx, query)
}

// ListLowStock returns rows at or below their reorder level.
func (r *Repository) ListLowStock(ctx context.Context) ([]Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM store_inventory WHERE quantity <= reorder_level ORDER BY item_name`, itemColumns)
	return r.queryItems(ctx, query)
}

func (r *Repository) queryItems(ctx context.Context, query string, args ...interface{}) ([]Item, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM store_inventory WHERE id = $1 FOR UPDATE`, itemColumns)
	return scanItem(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) SetQuantity(ctx context.Context, id int64, quantity float64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE store_inventory SET quantity = $1, updated_at = NOW() WHERE id = $2`,
		quantity, id)
	return err
}

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Create(ctx context.Context, it Item) (int64, error)
	Get(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context) ([]Item, error)
	ListLowStock(ctx context.Context) ([]Item, error)
}

// Service implements store stock adjustments.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs the inventory service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

// AddItem registers a stock row.
func (s *Service) AddItem(ctx context.Context, req AddItemRequest) (*Item, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	item := Item{
		ItemName:     req.ItemName,
		SKU:          req.SKU,
		Unit:         req.Unit,
		ReorderLevel: req.ReorderLevel,
	}
	id, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	item.ID = id
	return &item, nil
}

// Receive adds stock.
func (s *Service) Receive(ctx context.Context, itemID int64, req AdjustRequest) (*Item, error) {
	return s.adjust(ctx, itemID, req, +1)
}

// Issue removes stock. Stock can never go negative.
func (s *Service) Issue(ctx context.Context, itemID int64, req AdjustRequest) (*Item, error) {
	return s.adjust(ctx, itemID, req, -1)
}

func (s *Service) adjust(ctx context.Context, itemID int64, req AdjustRequest, sign float64) (*Item, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	var updated *Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		quantity := item.Quantity + sign*req.Quantity
		if quantity < 0 {
			return fmt.Errorf("%w: issuing %.2f %s would overdraw %s (have %.2f)",
				shared.ErrConsistency, req.Quantity, item.Unit, item.ItemName, item.Quantity)
		}
		if err := tx.SetQuantity(ctx, itemID, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		slog.Int64("item_id", itemID),
		slog.Float64("delta", sign*req.Quantity),
		slog.Float64("quantity", updated.Quantity))
	return updated, nil
}

// Get fetches one stock row.
func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// List returns all stock rows.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}

// ListLowStock returns rows at or below their reorder level.
func (s *Service) ListLowStock(ctx context.Context) ([]Item, error) {
	return s.repo.ListLowStock(ctx)
}
