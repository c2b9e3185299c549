package gate

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

// Repository provides PostgreSQL backed persistence for gate passes and the
// visitor ledger. Releasing a pass completes the linked order in the same
// transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations.
type TxRepository interface {
	GetPassForUpdate(ctx context.Context, id int64) (*GatePass, error)
	ReleasePass(ctx context.Context, id, verifiedBy int64) error
	RejectPass(ctx context.Context, id, verifiedBy int64, reason string) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status sales.OrderStatus) error
	InsertLog(ctx context.Context, log GateLog) (int64, error)
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

const passColumns = `id, dispatch_request_id, sales_order_id, customer_name, customer_phone,
vehicle_number, photo_ref, status, verified_by, rejection_reason, created_at, updated_at`

func scanPass(row pgx.Row) (*GatePass, error) {
	var p GatePass
	err := row.Scan(
		&p.ID, &p.DispatchRequestID, &p.SalesOrderID, &p.CustomerName, &p.CustomerPhone,
		&p.VehicleNumber, &p.PhotoRef, &p.Status, &p.VerifiedBy, &p.RejectionReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetPass retrieves one gate pass.
func (r *Repository) GetPass(ctx context.Context, id int64) (*GatePass, error) {
	query := fmt.Sprintf(`SELECT %s FROM gate_passes WHERE id = $1`, passColumns)
	return scanPass(r.pool.QueryRow(ctx, query, id))
}

func (r *Repository) queryPasses(ctx context.Context, query string, args ...interface{}) ([]GatePass, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	passes := make([]GatePass, 0)
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, *p)
	}
	return passes, rows.Err()
}

// ListPendingPasses returns passes awaiting verification, oldest first.
func (r *Repository) ListPendingPasses(ctx context.Context) ([]GatePass, error) {
	query := fmt.Sprintf(`SELECT %s FROM gate_passes WHERE status = $1 ORDER BY created_at`, passColumns)
	return r.queryPasses(ctx, query, PassStatusPendingVerification)
}

// ListPasses returns recent passes regardless of status.
func (r *Repository) ListPasses(ctx context.Context, limit int) ([]GatePass, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM gate_passes ORDER BY created_at DESC LIMIT $1`, passColumns)
	return r.queryPasses(ctx, query, limit)
}

// SearchPasses matches passes by customer name, vehicle number or the
// linked order number.
func (r *Repository) SearchPasses(ctx context.Context, term string) ([]GatePass, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM gate_passes p
		WHERE p.customer_name ILIKE $1
		   OR p.vehicle_number ILIKE $1
		   OR p.sales_order_id IN (SELECT id FROM sales_orders WHERE order_number ILIKE $1)
		ORDER BY p.created_at DESC
		LIMIT 100`,
		`p.id, p.dispatch_request_id, p.sales_order_id, p.customer_name, p.customer_phone,
p.vehicle_number, p.photo_ref, p.status, p.verified_by, p.rejection_reason, p.created_at, p.updated_at`)
	return r.queryPasses(ctx, query, "%"+term+"%")
}

// ListLogs returns the most recent ledger entries.
func (r *Repository) ListLogs(ctx context.Context, limit int) ([]GateLog, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.queryLogs(ctx, `
		SELECT id, kind, person_name, phone, photo_ref, reason, logged_by, created_at
		FROM gate_logs ORDER BY created_at DESC LIMIT $1`, limit)
}

// ListTodayLogs returns ledger entries for the given day.
func (r *Repository) ListTodayLogs(ctx context.Context, day time.Time) ([]GateLog, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return r.queryLogs(ctx, `
		SELECT id, kind, person_name, phone, photo_ref, reason, logged_by, created_at
		FROM gate_logs WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`,
		start, start.Add(24*time.Hour))
}

func (r *Repository) queryLogs(ctx context.Context, query string, args ...interface{}) ([]GateLog, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]GateLog, 0)
	for rows.Next() {
		var l GateLog
		if err := rows.Scan(&l.ID, &l.Kind, &l.PersonName, &l.Phone, &l.PhotoRef, &l.Reason, &l.LoggedBy, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Summarize aggregates the day's gate activity in one round trip.
func (r *Repository) Summarize(ctx context.Context, day time.Time) (*DailySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	summary := DailySummary{Date: start.Format("2006-01-02")}
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM gate_passes WHERE status = 'pending_verification'),
			(SELECT COUNT(*) FROM gate_passes WHERE status = 'released' AND updated_at >= $1 AND updated_at < $2),
			(SELECT COUNT(*) FROM gate_passes WHERE status = 'rejected' AND updated_at >= $1 AND updated_at < $2),
			(SELECT COUNT(*) FROM gate_logs WHERE kind IN ('register', 'manual_entry', 'coming_back') AND created_at >= $1 AND created_at < $2),
			(SELECT COUNT(*) FROM gate_logs WHERE kind IN ('register', 'manual_entry', 'coming_back') AND created_at >= $1 AND created_at < $2)
			- (SELECT COUNT(*) FROM gate_logs WHERE kind IN ('manual_exit', 'going_out') AND created_at >= $1 AND created_at < $2)`,
		start, end,
	).Scan(&summary.PendingPasses, &summary.ReleasedToday, &summary.RejectedToday, &summary.EntriesToday, &summary.CurrentlyInside)
	if err != nil {
		return nil, err
	}
	if summary.CurrentlyInside < 0 {
		summary.CurrentlyInside = 0
	}
	return &summary, nil
}

// AppendLog writes one ledger entry outside a workflow transaction.
func (r *Repository) AppendLog(ctx context.Context, log GateLog) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO gate_logs (kind, person_name, phone, photo_ref, reason, logged_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`,
		log.Kind, log.PersonName, log.Phone, log.PhotoRef, log.Reason, log.LoggedBy,
	).Scan(&id)
	return id, err
}

// --- transactional operations ---

func (t *txRepo) GetPassForUpdate(ctx context.Context, id int64) (*GatePass, error) {
	query := fmt.Sprintf(`SELECT %s FROM gate_passes WHERE id = $1 FOR UPDATE`, passColumns)
	return scanPass(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) ReleasePass(ctx context.Context, id, verifiedBy int64) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE gate_passes
		SET status = $1, verified_by = $2, updated_at = NOW()
		WHERE id = $3`,
		PassStatusReleased, verifiedBy, id)
	return err
}

func (t *txRepo) RejectPass(ctx context.Context, id, verifiedBy int64, reason string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE gate_passes
		SET status = $1, verified_by = $2, rejection_reason = $3, updated_at = NOW()
		WHERE id = $4`,
		PassStatusRejected, verifiedBy, reason, id)
	return err
}

func (t *txRepo) UpdateOrderStatus(ctx context.Context, orderID int64, status sales.OrderStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE sales_orders SET order_status = $1, updated_at = NOW() WHERE id = $2`,
		status, orderID)
	return err
}

func (t *txRepo) InsertLog(ctx context.Context, log GateLog) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO gate_logs (kind, person_name, phone, photo_ref, reason, logged_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`,
		log.Kind, log.PersonName, log.Phone, log.PhotoRef, log.Reason, log.LoggedBy,
	).Scan(&id)
	return id, err
}
