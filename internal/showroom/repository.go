package showroom

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for showroom stock and
// dispatch requests. Approval and dispatch write the downstream transport
// job and gate pass rows in the same transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations.
type TxRepository interface {
	GetDispatchForUpdate(ctx context.Context, id int64) (*DispatchRequest, error)
	UpdateDispatchStatus(ctx context.Context, id int64, status DispatchStatus) error
	GetProductForUpdate(ctx context.Context, id int64) (*Product, error)
	UpdateProductStatus(ctx context.Context, id int64, status ProductStatus) error
	CreateDispatch(ctx context.Context, d DispatchRequest) (int64, error)
	InsertTransportJob(ctx context.Context, salesOrderID int64) (int64, error)
	InsertGatePass(ctx context.Context, dispatchID, salesOrderID int64, customerName, customerPhone string, vehicleNumber, photoRef *string) (int64, error)
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

const productColumns = `id, name, sku, category, price, status, notes, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.Price, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateProduct adds a unit to the floor.
func (r *Repository) CreateProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO showroom_products (name, sku, category, price, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		p.Name, p.SKU, p.Category, p.Price, p.Status, p.Notes,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: sku %s", shared.ErrDuplicate, p.SKU)
		}
		return 0, err
	}
	return id, nil
}

// GetProduct retrieves one product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM showroom_products WHERE id = $1`, productColumns)
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

// ListProducts returns products, optionally filtered by status.
func (r *Repository) ListProducts(ctx context.Context, status *ProductStatus) ([]Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM showroom_products ORDER BY name`, productColumns)
	args := []interface{}{}
	if status != nil {
		query = fmt.Sprintf(`SELECT %s FROM showroom_products WHERE status = $1 ORDER BY name`, productColumns)
		args = append(args, *status)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

const dispatchColumns = `id, sales_order_id, showroom_product_id, status, requested_by, notes, created_at, updated_at`

func scanDispatch(row pgx.Row) (*DispatchRequest, error) {
	var d DispatchRequest
	err := row.Scan(&d.ID, &d.SalesOrderID, &d.ShowroomProductID, &d.Status, &d.RequestedBy, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// GetDispatch retrieves one dispatch request.
func (r *Repository) GetDispatch(ctx context.Context, id int64) (*DispatchRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM dispatch_requests WHERE id = $1`, dispatchColumns)
	return scanDispatch(r.pool.QueryRow(ctx, query, id))
}

// ListDispatches returns dispatch requests in a given status, oldest first.
func (r *Repository) ListDispatches(ctx context.Context, status DispatchStatus) ([]DispatchRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM dispatch_requests WHERE status = $1 ORDER BY created_at`, dispatchColumns)
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dispatches := make([]DispatchRequest, 0)
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		dispatches = append(dispatches, *d)
	}
	return dispatches, rows.Err()
}

// --- transactional operations ---

func (t *txRepo) GetDispatchForUpdate(ctx context.Context, id int64) (*DispatchRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM dispatch_requests WHERE id = $1 FOR UPDATE`, dispatchColumns)
	return scanDispatch(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) UpdateDispatchStatus(ctx context.Context, id int64, status DispatchStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE dispatch_requests SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

func (t *txRepo) GetProductForUpdate(ctx context.Context, id int64) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM showroom_products WHERE id = $1 FOR UPDATE`, productColumns)
	return scanProduct(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) UpdateProductStatus(ctx context.Context, id int64, status ProductStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE showroom_products SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

func (t *txRepo) CreateDispatch(ctx context.Context, d DispatchRequest) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO dispatch_requests (sales_order_id, showroom_product_id, status, requested_by, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id`,
		d.SalesOrderID, d.ShowroomProductID, d.Status, d.RequestedBy, d.Notes,
	).Scan(&id)
	return id, err
}

func (t *txRepo) InsertTransportJob(ctx context.Context, salesOrderID int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO transport_jobs (sales_order_id, status, created_at, updated_at)
		VALUES ($1, 'pending', NOW(), NOW())
		RETURNING id`, salesOrderID,
	).Scan(&id)
	return id, err
}

func (t *txRepo) InsertGatePass(ctx context.Context, dispatchID, salesOrderID int64, customerName, customerPhone string, vehicleNumber, photoRef *string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO gate_passes (dispatch_request_id, sales_order_id, customer_name, customer_phone, vehicle_number, photo_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending_verification', NOW(), NOW())
		RETURNING id`,
		dispatchID, salesOrderID, customerName, customerPhone, vehicleNumber, photoRef,
	).Scan(&id)
	return id, err
}
