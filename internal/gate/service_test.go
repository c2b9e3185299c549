package gate

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryGateRepo struct {
	passes        map[int64]GatePass
	logs          []GateLog
	orderStatuses map[int64]sales.OrderStatus
	summaryCalls  int
	nextID        int64
}

type memoryGateTx struct {
	repo *memoryGateRepo
}

func newMemoryGateRepo() *memoryGateRepo {
	return &memoryGateRepo{
		passes:        make(map[int64]GatePass),
		orderStatuses: make(map[int64]sales.OrderStatus),
	}
}

func (r *memoryGateRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryGateTx{repo: r})
}

func (r *memoryGateRepo) GetPass(ctx context.Context, id int64) (*GatePass, error) {
	p, ok := r.passes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memoryGateRepo) ListPendingPasses(ctx context.Context) ([]GatePass, error) {
	passes := make([]GatePass, 0)
	for _, p := range r.passes {
		if p.Status == PassStatusPendingVerification {
			passes = append(passes, p)
		}
	}
	return passes, nil
}

func (r *memoryGateRepo) ListPasses(ctx context.Context, limit int) ([]GatePass, error) {
	passes := make([]GatePass, 0)
	for _, p := range r.passes {
		passes = append(passes, p)
	}
	return passes, nil
}

func (r *memoryGateRepo) SearchPasses(ctx context.Context, term string) ([]GatePass, error) {
	return r.ListPasses(ctx, 100)
}

func (r *memoryGateRepo) ListLogs(ctx context.Context, limit int) ([]GateLog, error) {
	return append([]GateLog(nil), r.logs...), nil
}

func (r *memoryGateRepo) ListTodayLogs(ctx context.Context, day time.Time) ([]GateLog, error) {
	return append([]GateLog(nil), r.logs...), nil
}

func (r *memoryGateRepo) Summarize(ctx context.Context, day time.Time) (*DailySummary, error) {
	r.summaryCalls++
	pending := 0
	for _, p := range r.passes {
		if p.Status == PassStatusPendingVerification {
			pending++
		}
	}
	return &DailySummary{Date: day.Format("2006-01-02"), PendingPasses: pending}, nil
}

func (r *memoryGateRepo) AppendLog(ctx context.Context, log GateLog) (int64, error) {
	r.nextID++
	log.ID = r.nextID
	r.logs = append(r.logs, log)
	return log.ID, nil
}

func (tx *memoryGateTx) GetPassForUpdate(ctx context.Context, id int64) (*GatePass, error) {
	return tx.repo.GetPass(ctx, id)
}

func (tx *memoryGateTx) ReleasePass(ctx context.Context, id, verifiedBy int64) error {
	p := tx.repo.passes[id]
	p.Status = PassStatusReleased
	p.VerifiedBy = &verifiedBy
	tx.repo.passes[id] = p
	return nil
}

func (tx *memoryGateTx) RejectPass(ctx context.Context, id, verifiedBy int64, reason string) error {
	p := tx.repo.passes[id]
	p.Status = PassStatusRejected
	p.VerifiedBy = &verifiedBy
	p.RejectionReason = &reason
	tx.repo.passes[id] = p
	return nil
}

func (tx *memoryGateTx) UpdateOrderStatus(ctx context.Context, orderID int64, status sales.OrderStatus) error {
	tx.repo.orderStatuses[orderID] = status
	return nil
}

func (tx *memoryGateTx) InsertLog(ctx context.Context, log GateLog) (int64, error) {
	return tx.repo.AppendLog(ctx, log)
}

func watchmanActor() *shared.Actor {
	return &shared.Actor{UserID: 31, Name: "babu", Department: "watchman"}
}

func seedPass(repo *memoryGateRepo, orderID int64) int64 {
	repo.nextID++
	id := repo.nextID
	repo.passes[id] = GatePass{
		ID:            id,
		SalesOrderID:  &orderID,
		CustomerName:  "Ravi Kumar",
		CustomerPhone: "+91 99000 11122",
		Status:        PassStatusPendingVerification,
	}
	return id
}

func TestVerifyIdentityMismatchLeavesPassPending(t *testing.T) {
	repo := newMemoryGateRepo()
	passID := seedPass(repo, 42)
	svc := NewService(repo, nil, slog.Default())

	result, err := svc.VerifyIdentity(context.Background(), watchmanActor(), passID, VerifyIdentityRequest{
		ClaimedName:  "Someone Else",
		ClaimedPhone: "9900011122",
		Action:       "release",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeIdentityMismatch, result.Outcome)
	require.Equal(t, PassStatusPendingVerification, repo.passes[passID].Status)
	require.Empty(t, repo.orderStatuses)
}

func TestVerifyIdentityReleaseDeliversOrder(t *testing.T) {
	repo := newMemoryGateRepo()
	passID := seedPass(repo, 42)
	svc := NewService(repo, nil, slog.Default())

	// case and formatting differences must not fail the pickup
	result, err := svc.VerifyIdentity(context.Background(), watchmanActor(), passID, VerifyIdentityRequest{
		ClaimedName:  "  RAVI kumar ",
		ClaimedPhone: "099000-11122",
		Action:       "release",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeReleased, result.Outcome)
	require.Equal(t, PassStatusReleased, repo.passes[passID].Status)
	require.Equal(t, sales.OrderStatusDelivered, repo.orderStatuses[42])
}

func TestVerifyIdentitySendInKeepsPassOpen(t *testing.T) {
	repo := newMemoryGateRepo()
	passID := seedPass(repo, 42)
	svc := NewService(repo, nil, slog.Default())

	result, err := svc.VerifyIdentity(context.Background(), watchmanActor(), passID, VerifyIdentityRequest{
		ClaimedName:  "Ravi Kumar",
		ClaimedPhone: "9900011122",
		Action:       "send_in",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeSentIn, result.Outcome)
	require.Equal(t, PassStatusPendingVerification, repo.passes[passID].Status)
	require.Len(t, repo.logs, 1)
	require.Equal(t, LogKindManualEntry, repo.logs[0].Kind)
}

func TestVerifyIdentityClosedPassFails(t *testing.T) {
	repo := newMemoryGateRepo()
	passID := seedPass(repo, 42)
	svc := NewService(repo, nil, slog.Default())

	_, err := svc.RejectPickup(context.Background(), watchmanActor(), passID, RejectPickupRequest{Reason: "no vehicle papers"})
	require.NoError(t, err)

	_, err = svc.VerifyIdentity(context.Background(), watchmanActor(), passID, VerifyIdentityRequest{
		ClaimedName:  "Ravi Kumar",
		ClaimedPhone: "9900011122",
		Action:       "release",
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRejectPickupTwiceFails(t *testing.T) {
	repo := newMemoryGateRepo()
	passID := seedPass(repo, 42)
	svc := NewService(repo, nil, slog.Default())

	_, err := svc.RejectPickup(context.Background(), watchmanActor(), passID, RejectPickupRequest{Reason: "suspicious"})
	require.NoError(t, err)

	_, err = svc.RejectPickup(context.Background(), watchmanActor(), passID, RejectPickupRequest{Reason: "again"})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRecordMovementRequiresReason(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := NewService(repo, nil, slog.Default())

	_, err := svc.RecordMovement(context.Background(), watchmanActor(), LogKindGoingOut, ManualLogRequest{
		PersonName: "worker one",
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	reason := "lunch"
	log, err := svc.RecordMovement(context.Background(), watchmanActor(), LogKindGoingOut, ManualLogRequest{
		PersonName: "worker one",
		Reason:     &reason,
	})
	require.NoError(t, err)
	require.Equal(t, LogKindGoingOut, log.Kind)
}

func TestDailySummaryUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryGateRepo()
	seedPass(repo, 42)
	svc := NewService(repo, client, slog.Default())

	first, err := svc.DailySummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.PendingPasses)

	second, err := svc.DailySummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.summaryCalls)
}
