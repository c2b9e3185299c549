package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the transport side.
// Approval decisions and delivery completion write through to sales_orders
// in the same transaction so the order never disagrees with transport state.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations.
type TxRepository interface {
	GetApprovalForUpdate(ctx context.Context, id int64) (*ApprovalRequest, error)
	DecideApproval(ctx context.Context, id int64, status ApprovalStatus, demandAmount *float64, notes *string, decidedBy int64, decidedAt time.Time) error
	GetVehicleForUpdate(ctx context.Context, id int64) (*Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, id int64, status VehicleStatus) error
	GetJobForUpdate(ctx context.Context, id int64) (*Job, error)
	CreateJob(ctx context.Context, job Job) (int64, error)
	AssignJob(ctx context.Context, jobID, vehicleID int64, driverName, driverContact string, scheduledDate *time.Time) error
	UpdateJobStatus(ctx context.Context, jobID int64, status JobStatus, actualDeliveryDate *time.Time) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status sales.OrderStatus) error
	GetOrderStatus(ctx context.Context, orderID int64) (sales.OrderStatus, error)
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

const approvalColumns = `id, sales_order_id, delivery_type, original_transport_cost, demand_amount,
transport_notes, status, decided_by, decided_at, created_at, updated_at`

func scanApproval(row pgx.Row) (*ApprovalRequest, error) {
	var a ApprovalRequest
	err := row.Scan(
		&a.ID, &a.SalesOrderID, &a.DeliveryType, &a.OriginalTransportCost, &a.DemandAmount,
		&a.TransportNotes, &a.Status, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetApproval retrieves one approval request.
func (r *Repository) GetApproval(ctx context.Context, id int64) (*ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM transport_approval_requests WHERE id = $1`, approvalColumns)
	return scanApproval(r.pool.QueryRow(ctx, query, id))
}

// ListApprovals returns approval requests in a given status joined with
// their order, newest first.
func (r *Repository) ListApprovals(ctx context.Context, status ApprovalStatus) ([]ApprovalView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.sales_order_id, r.delivery_type, r.original_transport_cost, r.demand_amount,
		       r.transport_notes, r.status, r.decided_by, r.decided_at, r.created_at, r.updated_at,
		       o.order_number, o.customer_name, o.customer_address, o.final_amount
		FROM transport_approval_requests r
		JOIN sales_orders o ON o.id = r.sales_order_id
		WHERE r.status = $1
		ORDER BY r.created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]ApprovalView, 0)
	for rows.Next() {
		var v ApprovalView
		if err := rows.Scan(
			&v.ID, &v.SalesOrderID, &v.DeliveryType, &v.OriginalTransportCost, &v.DemandAmount,
			&v.TransportNotes, &v.Status, &v.DecidedBy, &v.DecidedAt, &v.CreatedAt, &v.UpdatedAt,
			&v.OrderNumber, &v.CustomerName, &v.CustomerAddress, &v.FinalAmount,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

const vehicleColumns = `id, vehicle_number, vehicle_type, capacity_kg, driver_name, driver_contact,
status, notes, created_at, updated_at`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	err := row.Scan(
		&v.ID, &v.VehicleNumber, &v.VehicleType, &v.CapacityKg, &v.DriverName, &v.DriverContact,
		&v.Status, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// CreateVehicle registers a new fleet vehicle.
func (r *Repository) CreateVehicle(ctx context.Context, v Vehicle) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vehicles (vehicle_number, vehicle_type, capacity_kg, driver_name, driver_contact, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`,
		v.VehicleNumber, v.VehicleType, v.CapacityKg, v.DriverName, v.DriverContact, v.Status, v.Notes,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: vehicle number %s", shared.ErrDuplicate, v.VehicleNumber)
		}
		return 0, err
	}
	return id, nil
}

// GetVehicle retrieves one vehicle.
func (r *Repository) GetVehicle(ctx context.Context, id int64) (*Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM vehicles WHERE id = $1`, vehicleColumns)
	return scanVehicle(r.pool.QueryRow(ctx, query, id))
}

// ListVehicles returns the fleet, optionally filtered by status.
func (r *Repository) ListVehicles(ctx context.Context, status *VehicleStatus) ([]Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM vehicles ORDER BY vehicle_number`, vehicleColumns)
	args := []interface{}{}
	if status != nil {
		query = fmt.Sprintf(`SELECT %s FROM vehicles WHERE status = $1 ORDER BY vehicle_number`, vehicleColumns)
		args = append(args, *status)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := make([]Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

const jobColumns = `id, sales_order_id, vehicle_id, driver_name, driver_contact, status,
scheduled_date, actual_delivery_date, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.SalesOrderID, &j.VehicleID, &j.DriverName, &j.DriverContact, &j.Status,
		&j.ScheduledDate, &j.ActualDeliveryDate, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// GetJob retrieves one transport job.
func (r *Repository) GetJob(ctx context.Context, id int64) (*Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM transport_jobs WHERE id = $1`, jobColumns)
	return scanJob(r.pool.QueryRow(ctx, query, id))
}

// ListJobs returns jobs in a given status, oldest first so the queue is
// worked in order.
func (r *Repository) ListJobs(ctx context.Context, status JobStatus) ([]Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM transport_jobs WHERE status = $1 ORDER BY created_at`, jobColumns)
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// --- transactional operations ---

func (t *txRepo) GetApprovalForUpdate(ctx context.Context, id int64) (*ApprovalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM transport_approval_requests WHERE id = $1 FOR UPDATE`, approvalColumns)
	return scanApproval(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) DecideApproval(ctx context.Context, id int64, status ApprovalStatus, demandAmount *float64, notes *string, decidedBy int64, decidedAt time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE transport_approval_requests
		SET status = $1, demand_amount = $2, transport_notes = $3, decided_by = $4, decided_at = $5, updated_at = NOW()
		WHERE id = $6`,
		status, demandAmount, notes, decidedBy, decidedAt, id)
	return err
}

func (t *txRepo) GetVehicleForUpdate(ctx context.Context, id int64) (*Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM vehicles WHERE id = $1 FOR UPDATE`, vehicleColumns)
	return scanVehicle(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) UpdateVehicleStatus(ctx context.Context, id int64, status VehicleStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

func (t *txRepo) GetJobForUpdate(ctx context.Context, id int64) (*Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM transport_jobs WHERE id = $1 FOR UPDATE`, jobColumns)
	return scanJob(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) CreateJob(ctx context.Context, job Job) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO transport_jobs (sales_order_id, vehicle_id, driver_name, driver_contact, status, scheduled_date, actual_delivery_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`,
		job.SalesOrderID, job.VehicleID, job.DriverName, job.DriverContact, job.Status, job.ScheduledDate, job.ActualDeliveryDate,
	).Scan(&id)
	return id, err
}

func (t *txRepo) AssignJob(ctx context.Context, jobID, vehicleID int64, driverName, driverContact string, scheduledDate *time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE transport_jobs
		SET vehicle_id = $1, driver_name = $2, driver_contact = $3, status = $4, scheduled_date = $5, updated_at = NOW()
		WHERE id = $6`,
		vehicleID, driverName, driverContact, JobStatusAssigned, scheduledDate, jobID)
	return err
}

func (t *txRepo) UpdateJobStatus(ctx context.Context, jobID int64, status JobStatus, actualDeliveryDate *time.Time) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE transport_jobs
		SET status = $1, actual_delivery_date = COALESCE($2, actual_delivery_date), updated_at = NOW()
		WHERE id = $3`,
		status, actualDeliveryDate, jobID)
	return err
}

func (t *txRepo) UpdateOrderStatus(ctx context.Context, orderID int64, status sales.OrderStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE sales_orders SET order_status = $1, updated_at = NOW() WHERE id = $2`,
		status, orderID)
	return err
}

func (t *txRepo) GetOrderStatus(ctx context.Context, orderID int64) (sales.OrderStatus, error) {
	var status sales.OrderStatus
	err := t.tx.QueryRow(ctx,
		`SELECT order_status FROM sales_orders WHERE id = $1 FOR UPDATE`, orderID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return status, nil
}
