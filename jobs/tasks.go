package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue background jobs run on.
	QueueDefault = "default"

	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
	// TaskStalePassSweep flags gate passes stuck in verification.
	TaskStalePassSweep = "gate:stale_pass_sweep"
	// TaskApprovalReminder reports queues waiting on a decision.
	TaskApprovalReminder = "approvals:reminder"
)

// ScheduledPayload carries scheduling metadata shared by the cron tasks.
type ScheduledPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func newScheduledTask(taskType string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskIdempotencyCleanup, at)
}

// NewStalePassSweepTask constructs the gate pass sweep task.
func NewStalePassSweepTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskStalePassSweep, at)
}

// NewApprovalReminderTask constructs the reminder task.
func NewApprovalReminderTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskApprovalReminder, at)
}
