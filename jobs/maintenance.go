package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Maintenance bundles the nightly housekeeping handlers.
type Maintenance struct {
	pool        *pgxpool.Pool
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger

	// KeyRetention controls how long processed idempotency keys are kept.
	KeyRetention time.Duration
	// StaleAfter controls when a pending gate pass counts as stuck.
	StaleAfter time.Duration
}

// NewMaintenance constructs the maintenance handlers.
func NewMaintenance(pool *pgxpool.Pool, idempotency *shared.IdempotencyStore, logger *slog.Logger) *Maintenance {
	return &Maintenance{
		pool:         pool,
		idempotency:  idempotency,
		logger:       logger,
		KeyRetention: 7 * 24 * time.Hour,
		StaleAfter:   48 * time.Hour,
	}
}

// HandleIdempotencyCleanup removes idempotency keys past retention.
func (m *Maintenance) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) error {
	var payload ScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := m.idempotency.Cleanup(ctx, m.KeyRetention); err != nil {
		return err
	}
	m.logger.Info("idempotency keys pruned", "retention", m.KeyRetention.String())
	return nil
}

// HandleStalePassSweep logs gate passes that have sat unverified too long so
// the watchman desk can chase them.
func (m *Maintenance) HandleStalePassSweep(ctx context.Context, t *asynq.Task) error {
	var payload ScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	cutoff := time.Now().Add(-m.StaleAfter)
	rows, err := m.pool.Query(ctx, `
		SELECT id, customer_name, created_at
		FROM gate_passes
		WHERE status = 'pending_verification' AND created_at < $1
		ORDER BY created_at`, cutoff)
	if err != nil {
		return err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id int64
		var customer string
		var createdAt time.Time
		if err := rows.Scan(&id, &customer, &createdAt); err != nil {
			return err
		}
		count++
		m.logger.Warn("gate pass stuck in verification",
			"gate_pass_id", id, "customer", customer, "age", time.Since(createdAt).Round(time.Hour).String())
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if count == 0 {
		m.logger.Info("no stale gate passes")
	}
	return nil
}

// HandleApprovalReminder reports the size of the pending approval queues.
func (m *Maintenance) HandleApprovalReminder(ctx context.Context, t *asynq.Task) error {
	var payload ScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	var transportPending, financePending, userPending int64
	err := m.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM transport_approval_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM finance_transactions WHERE status = 'pending'),
			(SELECT COUNT(*) FROM users WHERE status = 'pending')`).
		Scan(&transportPending, &financePending, &userPending)
	if err != nil {
		return err
	}
	m.logger.Info("pending approval queues",
		"transport", transportPending, "finance", financePending, "users", userPending)
	return nil
}
