package transport

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryTransportRepo struct {
	approvals     map[int64]ApprovalRequest
	vehicles      map[int64]Vehicle
	jobs          map[int64]Job
	orderStatuses map[int64]sales.OrderStatus
	nextID        int64
}

type memoryTransportTx struct {
	repo *memoryTransportRepo
}

func newMemoryTransportRepo() *memoryTransportRepo {
	return &memoryTransportRepo{
		approvals:     make(map[int64]ApprovalRequest),
		vehicles:      make(map[int64]Vehicle),
		jobs:          make(map[int64]Job),
		orderStatuses: make(map[int64]sales.OrderStatus),
	}
}

func (r *memoryTransportRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTransportTx{repo: r})
}

func (r *memoryTransportRepo) GetApproval(ctx context.Context, id int64) (*ApprovalRequest, error) {
	a, ok := r.approvals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (r *memoryTransportRepo) ListApprovals(ctx context.Context, status ApprovalStatus) ([]ApprovalView, error) {
	views := make([]ApprovalView, 0)
	for _, a := range r.approvals {
		if a.Status == status {
			views = append(views, ApprovalView{ApprovalRequest: a})
		}
	}
	return views, nil
}

func (r *memoryTransportRepo) CreateVehicle(ctx context.Context, v Vehicle) (int64, error) {
	r.nextID++
	v.ID = r.nextID
	r.vehicles[v.ID] = v
	return v.ID, nil
}

func (r *memoryTransportRepo) GetVehicle(ctx context.Context, id int64) (*Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &v, nil
}

func (r *memoryTransportRepo) ListVehicles(ctx context.Context, status *VehicleStatus) ([]Vehicle, error) {
	vehicles := make([]Vehicle, 0)
	for _, v := range r.vehicles {
		if status == nil || v.Status == *status {
			vehicles = append(vehicles, v)
		}
	}
	return vehicles, nil
}

func (r *memoryTransportRepo) GetJob(ctx context.Context, id int64) (*Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &j, nil
}

func (r *memoryTransportRepo) ListJobs(ctx context.Context, status JobStatus) ([]Job, error) {
	jobs := make([]Job, 0)
	for _, j := range r.jobs {
		if j.Status == status {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

func (tx *memoryTransportTx) GetApprovalForUpdate(ctx context.Context, id int64) (*ApprovalRequest, error) {
	return tx.repo.GetApproval(ctx, id)
}

func (tx *memoryTransportTx) DecideApproval(ctx context.Context, id int64, status ApprovalStatus, demandAmount *float64, notes *string, decidedBy int64, decidedAt time.Time) error {
	a := tx.repo.approvals[id]
	a.Status = status
	a.DemandAmount = demandAmount
	a.TransportNotes = notes
	a.DecidedBy = &decidedBy
	a.DecidedAt = &decidedAt
	tx.repo.approvals[id] = a
	return nil
}

func (tx *memoryTransportTx) GetVehicleForUpdate(ctx context.Context, id int64) (*Vehicle, error) {
	return tx.repo.GetVehicle(ctx, id)
}

func (tx *memoryTransportTx) UpdateVehicleStatus(ctx context.Context, id int64, status VehicleStatus) error {
	v := tx.repo.vehicles[id]
	v.Status = status
	tx.repo.vehicles[id] = v
	return nil
}

func (tx *memoryTransportTx) GetJobForUpdate(ctx context.Context, id int64) (*Job, error) {
	return tx.repo.GetJob(ctx, id)
}

func (tx *memoryTransportTx) CreateJob(ctx context.Context, job Job) (int64, error) {
	tx.repo.nextID++
	job.ID = tx.repo.nextID
	tx.repo.jobs[job.ID] = job
	return job.ID, nil
}

func (tx *memoryTransportTx) AssignJob(ctx context.Context, jobID, vehicleID int64, driverName, driverContact string, scheduledDate *time.Time) error {
	j := tx.repo.jobs[jobID]
	j.VehicleID = &vehicleID
	j.DriverName = &driverName
	j.DriverContact = &driverContact
	j.Status = JobStatusAssigned
	j.ScheduledDate = scheduledDate
	tx.repo.jobs[jobID] = j
	return nil
}

func (tx *memoryTransportTx) UpdateJobStatus(ctx context.Context, jobID int64, status JobStatus, actualDeliveryDate *time.Time) error {
	j := tx.repo.jobs[jobID]
	j.Status = status
	if actualDeliveryDate != nil {
		j.ActualDeliveryDate = actualDeliveryDate
	}
	tx.repo.jobs[jobID] = j
	return nil
}

func (tx *memoryTransportTx) UpdateOrderStatus(ctx context.Context, orderID int64, status sales.OrderStatus) error {
	tx.repo.orderStatuses[orderID] = status
	return nil
}

func (tx *memoryTransportTx) GetOrderStatus(ctx context.Context, orderID int64) (sales.OrderStatus, error) {
	status, ok := tx.repo.orderStatuses[orderID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return status, nil
}

type memoryApprovalLedger struct {
	entries []shared.ApprovalLog
}

func (l *memoryApprovalLedger) Record(ctx context.Context, entry shared.ApprovalLog) error {
	l.entries = append(l.entries, entry)
	return nil
}

func (l *memoryApprovalLedger) List(ctx context.Context, module string, ref int64) ([]shared.ApprovalLog, error) {
	matches := make([]shared.ApprovalLog, 0)
	for _, e := range l.entries {
		if e.Module == module && e.RefID == ref {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

func newTestService(repo *memoryTransportRepo) *Service {
	return NewService(repo, nil, slog.Default())
}

func transportActor() *shared.Actor {
	return &shared.Actor{UserID: 11, Name: "kiran", Department: "transport"}
}

func seedApproval(repo *memoryTransportRepo, orderID int64, cost float64) int64 {
	repo.nextID++
	id := repo.nextID
	repo.approvals[id] = ApprovalRequest{
		ID:                    id,
		SalesOrderID:          orderID,
		DeliveryType:          "part load",
		OriginalTransportCost: cost,
		Status:                ApprovalStatusPending,
	}
	repo.orderStatuses[orderID] = sales.OrderStatusPendingTransport
	return id
}

func seedVehicle(repo *memoryTransportRepo, status VehicleStatus) int64 {
	repo.nextID++
	id := repo.nextID
	repo.vehicles[id] = Vehicle{
		ID:            id,
		VehicleNumber: "KA-01-AB-1234",
		VehicleType:   "truck",
		CapacityKg:    4000,
		DriverName:    "mahesh",
		DriverContact: "9900011122",
		Status:        status,
	}
	return id
}

func TestApproveRequestConfirmsOrderAndOpensJob(t *testing.T) {
	repo := newMemoryTransportRepo()
	requestID := seedApproval(repo, 42, 500)
	svc := newTestService(repo)

	approval, err := svc.ApproveRequest(context.Background(), transportActor(), requestID)
	require.NoError(t, err)
	require.Equal(t, ApprovalStatusApproved, approval.Status)
	require.NotNil(t, approval.DecidedBy)
	require.Equal(t, int64(11), *approval.DecidedBy)

	require.Equal(t, sales.OrderStatusConfirmed, repo.orderStatuses[42])
	jobs, err := repo.ListJobs(context.Background(), JobStatusPending)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, int64(42), jobs[0].SalesOrderID)
}

func TestApproveRequestTwiceFails(t *testing.T) {
	repo := newMemoryTransportRepo()
	requestID := seedApproval(repo, 42, 500)
	svc := newTestService(repo)

	_, err := svc.ApproveRequest(context.Background(), transportActor(), requestID)
	require.NoError(t, err)

	_, err = svc.ApproveRequest(context.Background(), transportActor(), requestID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRejectRequestRaisesDemand(t *testing.T) {
	repo := newMemoryTransportRepo()
	requestID := seedApproval(repo, 42, 500)
	svc := newTestService(repo)

	approval, err := svc.RejectRequest(context.Background(), transportActor(), requestID, RejectApprovalRequest{
		DemandAmount: 900,
	})
	require.NoError(t, err)
	require.Equal(t, ApprovalStatusRejected, approval.Status)
	require.NotNil(t, approval.DemandAmount)
	require.Equal(t, 900.0, *approval.DemandAmount)

	// order waits for sales to answer the demand
	require.Equal(t, sales.OrderStatusPendingTransport, repo.orderStatuses[42])
	require.Empty(t, repo.jobs)
}

func TestAssignVehicleSnapshotsDriver(t *testing.T) {
	repo := newMemoryTransportRepo()
	requestID := seedApproval(repo, 42, 500)
	vehicleID := seedVehicle(repo, VehicleStatusAvailable)
	svc := newTestService(repo)

	_, err := svc.ApproveRequest(context.Background(), transportActor(), requestID)
	require.NoError(t, err)

	jobs, _ := repo.ListJobs(context.Background(), JobStatusPending)
	require.Len(t, jobs, 1)

	job, err := svc.AssignVehicle(context.Background(), jobs[0].ID, AssignVehicleRequest{VehicleID: vehicleID})
	require.NoError(t, err)
	require.Equal(t, JobStatusAssigned, job.Status)
	require.NotNil(t, job.DriverName)
	require.Equal(t, "mahesh", *job.DriverName)
	require.Equal(t, VehicleStatusAssigned, repo.vehicles[vehicleID].Status)
}

func TestAssignVehicleRejectsBusyVehicle(t *testing.T) {
	repo := newMemoryTransportRepo()
	requestID := seedApproval(repo, 42, 500)
	vehicleID := seedVehicle(repo, VehicleStatusInTransit)
	svc := newTestService(repo)

	_, err := svc.ApproveRequest(context.Background(), transportActor(), requestID)
	require.NoError(t, err)
	jobs, _ := repo.ListJobs(context.Background(), JobStatusPending)

	_, err = svc.AssignVehicle(context.Background(), jobs[0].ID, AssignVehicleRequest{VehicleID: vehicleID})
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Equal(t, JobStatusPending, repo.jobs[jobs[0].ID].Status)
}

func TestCompleteDeliveryFreesVehicleAndDeliversOrder(t *testing.T) {
	repo := newMemoryTransportRepo()
	requestID := seedApproval(repo, 42, 500)
	vehicleID := seedVehicle(repo, VehicleStatusAvailable)
	svc := newTestService(repo)

	_, err := svc.ApproveRequest(context.Background(), transportActor(), requestID)
	require.NoError(t, err)
	jobs, _ := repo.ListJobs(context.Background(), JobStatusPending)

	_, err = svc.AssignVehicle(context.Background(), jobs[0].ID, AssignVehicleRequest{VehicleID: vehicleID})
	require.NoError(t, err)
	_, err = svc.StartTransit(context.Background(), jobs[0].ID)
	require.NoError(t, err)
	require.Equal(t, VehicleStatusInTransit, repo.vehicles[vehicleID].Status)

	job, err := svc.CompleteDelivery(context.Background(), jobs[0].ID)
	require.NoError(t, err)
	require.Equal(t, JobStatusDelivered, job.Status)
	require.NotNil(t, job.ActualDeliveryDate)
	require.Equal(t, VehicleStatusAvailable, repo.vehicles[vehicleID].Status)
	require.Equal(t, sales.OrderStatusDelivered, repo.orderStatuses[42])
}

func TestApprovalHistoryReturnsDecisionTrail(t *testing.T) {
	repo := newMemoryTransportRepo()
	requestID := seedApproval(repo, 42, 500)
	ledger := &memoryApprovalLedger{}
	svc := NewService(repo, ledger, slog.Default())

	_, err := svc.RejectRequest(context.Background(), transportActor(), requestID, RejectApprovalRequest{
		DemandAmount: 900,
	})
	require.NoError(t, err)

	history, err := svc.ApprovalHistory(context.Background(), requestID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, shared.ApprovalReject, history[0].Action)
	require.Equal(t, int64(11), history[0].ActorID)
	require.Equal(t, "demand 900.00", history[0].Note)
}

func TestApprovalHistoryUnknownRequest(t *testing.T) {
	repo := newMemoryTransportRepo()
	svc := NewService(repo, &memoryApprovalLedger{}, slog.Default())

	_, err := svc.ApprovalHistory(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetApprovalAndVehicle(t *testing.T) {
	repo := newMemoryTransportRepo()
	requestID := seedApproval(repo, 42, 500)
	vehicleID := seedVehicle(repo, VehicleStatusAvailable)
	svc := newTestService(repo)

	approval, err := svc.GetApproval(context.Background(), requestID)
	require.NoError(t, err)
	require.Equal(t, int64(42), approval.SalesOrderID)

	vehicle, err := svc.GetVehicle(context.Background(), vehicleID)
	require.NoError(t, err)
	require.Equal(t, "KA-01-AB-1234", vehicle.VehicleNumber)

	_, err = svc.GetVehicle(context.Background(), 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSetVehicleStatusBlocksActiveJob(t *testing.T) {
	repo := newMemoryTransportRepo()
	vehicleID := seedVehicle(repo, VehicleStatusAssigned)
	svc := newTestService(repo)

	_, err := svc.SetVehicleStatus(context.Background(), vehicleID, SetVehicleStatusRequest{Status: "maintenance"})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}
