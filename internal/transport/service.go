package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetApproval(ctx context.Context, id int64) (*ApprovalRequest, error)
	ListApprovals(ctx context.Context, status ApprovalStatus) ([]ApprovalView, error)
	CreateVehicle(ctx context.Context, v Vehicle) (int64, error)
	GetVehicle(ctx context.Context, id int64) (*Vehicle, error)
	ListVehicles(ctx context.Context, status *VehicleStatus) ([]Vehicle, error)
	GetJob(ctx context.Context, id int64) (*Job, error)
	ListJobs(ctx context.Context, status JobStatus) ([]Job, error)
}

// ApprovalHistoryPort reads and appends the cross-department approval ledger.
type ApprovalHistoryPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
	List(ctx context.Context, module string, ref int64) ([]shared.ApprovalLog, error)
}

const approvalModule = "transport_approval"

// Service implements transport approvals, fleet management and delivery jobs.
type Service struct {
	repo      RepositoryPort
	approvals ApprovalHistoryPort
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the transport service.
func NewService(repo RepositoryPort, approvals ApprovalHistoryPort, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		approvals: approvals,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// ApproveRequest accepts the quoted transport cost. The order confirms and a
// pending delivery job is opened, all in one transaction.
func (s *Service) ApproveRequest(ctx context.Context, actor *shared.Actor, requestID int64) (*ApprovalRequest, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}

	var decided *ApprovalRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetApprovalForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != ApprovalStatusPending {
			return fmt.Errorf("%w: approval request %d already %s", shared.ErrInvalidState, requestID, req.Status)
		}

		orderStatus, err := tx.GetOrderStatus(ctx, req.SalesOrderID)
		if err != nil {
			return err
		}
		if orderStatus != sales.OrderStatusPendingTransport {
			return fmt.Errorf("%w: order %d is %s, not awaiting transport approval", shared.ErrInvalidState, req.SalesOrderID, orderStatus)
		}

		decidedAt := s.now()
		if err := tx.DecideApproval(ctx, requestID, ApprovalStatusApproved, nil, nil, actor.UserID, decidedAt); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, req.SalesOrderID, sales.OrderStatusConfirmed); err != nil {
			return err
		}
		if _, err := tx.CreateJob(ctx, Job{SalesOrderID: req.SalesOrderID, Status: JobStatusPending}); err != nil {
			return err
		}

		req.Status = ApprovalStatusApproved
		req.DecidedBy = &actor.UserID
		req.DecidedAt = &decidedAt
		decided = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordHistory(ctx, actor, requestID, shared.ApprovalApprove, "")
	s.logger.Info("transport approval accepted",
		slog.Int64("request_id", requestID),
		slog.Int64("order_id", decided.SalesOrderID))
	return decided, nil
}

// RejectRequest raises a cost demand against the order. The order stays
// unconfirmed until sales responds to the demand.
func (s *Service) RejectRequest(ctx context.Context, actor *shared.Actor, requestID int64, req RejectApprovalRequest) (*ApprovalRequest, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	var decided *ApprovalRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		approval, err := tx.GetApprovalForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if approval.Status != ApprovalStatusPending {
			return fmt.Errorf("%w: approval request %d already %s", shared.ErrInvalidState, requestID, approval.Status)
		}

		decidedAt := s.now()
		demand := req.DemandAmount
		if err := tx.DecideApproval(ctx, requestID, ApprovalStatusRejected, &demand, req.TransportNotes, actor.UserID, decidedAt); err != nil {
			return err
		}

		approval.Status = ApprovalStatusRejected
		approval.DemandAmount = &demand
		approval.TransportNotes = req.TransportNotes
		approval.DecidedBy = &actor.UserID
		approval.DecidedAt = &decidedAt
		decided = approval
		return nil
	})
	if err != nil {
		return nil, err
	}

	note := fmt.Sprintf("demand %.2f", req.DemandAmount)
	s.recordHistory(ctx, actor, requestID, shared.ApprovalReject, note)
	s.logger.Info("transport approval rejected with demand",
		slog.Int64("request_id", requestID),
		slog.Float64("demand_amount", req.DemandAmount))
	return decided, nil
}

// GetApproval fetches one approval request.
func (s *Service) GetApproval(ctx context.Context, id int64) (*ApprovalRequest, error) {
	return s.repo.GetApproval(ctx, id)
}

// ListApprovals returns approval requests in the given status.
func (s *Service) ListApprovals(ctx context.Context, status ApprovalStatus) ([]ApprovalView, error) {
	return s.repo.ListApprovals(ctx, status)
}

// ApprovalHistory returns the decision trail for one approval request.
func (s *Service) ApprovalHistory(ctx context.Context, requestID int64) ([]shared.ApprovalLog, error) {
	if _, err := s.repo.GetApproval(ctx, requestID); err != nil {
		return nil, err
	}
	if s.approvals == nil {
		return []shared.ApprovalLog{}, nil
	}
	return s.approvals.List(ctx, approvalModule, requestID)
}

// AddVehicle registers a fleet vehicle as available.
func (s *Service) AddVehicle(ctx context.Context, req AddVehicleRequest) (*Vehicle, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	vehicle := Vehicle{
		VehicleNumber: req.VehicleNumber,
		VehicleType:   req.VehicleType,
		CapacityKg:    req.CapacityKg,
		DriverName:    req.DriverName,
		DriverContact: req.DriverContact,
		Status:        VehicleStatusAvailable,
		Notes:         req.Notes,
	}
	id, err := s.repo.CreateVehicle(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	vehicle.ID = id
	s.logger.Info("vehicle registered", slog.Int64("vehicle_id", id), slog.String("vehicle_number", req.VehicleNumber))
	return &vehicle, nil
}

// SetVehicleStatus moves a vehicle between available and maintenance. A
// vehicle with an active job cannot be pulled for maintenance.
func (s *Service) SetVehicleStatus(ctx context.Context, vehicleID int64, req SetVehicleStatusRequest) (*Vehicle, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	target := VehicleStatus(req.Status)
	var updated *Vehicle
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		vehicle, err := tx.GetVehicleForUpdate(ctx, vehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status == VehicleStatusAssigned || vehicle.Status == VehicleStatusInTransit {
			return fmt.Errorf("%w: vehicle %s has an active job", shared.ErrInvalidState, vehicle.VehicleNumber)
		}
		if err := tx.UpdateVehicleStatus(ctx, vehicleID, target); err != nil {
			return err
		}
		vehicle.Status = target
		updated = vehicle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetVehicle fetches one fleet vehicle.
func (s *Service) GetVehicle(ctx context.Context, id int64) (*Vehicle, error) {
	return s.repo.GetVehicle(ctx, id)
}

// ListFleet returns the whole fleet.
func (s *Service) ListFleet(ctx context.Context) ([]Vehicle, error) {
	return s.repo.ListVehicles(ctx, nil)
}

// ListAvailableVehicles returns vehicles free to take a job.
func (s *Service) ListAvailableVehicles(ctx context.Context) ([]Vehicle, error) {
	status := VehicleStatusAvailable
	return s.repo.ListVehicles(ctx, &status)
}

// AssignVehicle binds an available vehicle to a pending job and snapshots
// its driver details onto the job.
func (s *Service) AssignVehicle(ctx context.Context, jobID int64, req AssignVehicleRequest) (*Job, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	var updated *Job
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		job, err := tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status != JobStatusPending {
			return fmt.Errorf("%w: job %d is %s, not pending assignment", shared.ErrInvalidState, jobID, job.Status)
		}

		vehicle, err := tx.GetVehicleForUpdate(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status != VehicleStatusAvailable {
			return fmt.Errorf("%w: vehicle %s is %s", shared.ErrInvalidState, vehicle.VehicleNumber, vehicle.Status)
		}

		if err := tx.AssignJob(ctx, jobID, vehicle.ID, vehicle.DriverName, vehicle.DriverContact, req.ScheduledDate); err != nil {
			return err
		}
		if err := tx.UpdateVehicleStatus(ctx, vehicle.ID, VehicleStatusAssigned); err != nil {
			return err
		}

		job.VehicleID = &vehicle.ID
		job.DriverName = &vehicle.DriverName
		job.DriverContact = &vehicle.DriverContact
		job.Status = JobStatusAssigned
		job.ScheduledDate = req.ScheduledDate
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("vehicle assigned to job",
		slog.Int64("job_id", jobID),
		slog.Int64("vehicle_id", req.VehicleID))
	return updated, nil
}

// StartTransit marks an assigned job as on the road.
func (s *Service) StartTransit(ctx context.Context, jobID int64) (*Job, error) {
	var updated *Job
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		job, err := tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status != JobStatusAssigned {
			return fmt.Errorf("%w: job %d is %s, not assigned", shared.ErrInvalidState, jobID, job.Status)
		}
		if err := tx.UpdateJobStatus(ctx, jobID, JobStatusInTransit, nil); err != nil {
			return err
		}
		if job.VehicleID != nil {
			if err := tx.UpdateVehicleStatus(ctx, *job.VehicleID, VehicleStatusInTransit); err != nil {
				return err
			}
		}
		job.Status = JobStatusInTransit
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("job in transit", slog.Int64("job_id", jobID))
	return updated, nil
}

// CompleteDelivery closes a job. The vehicle frees up and the order flips to
// delivered in the same transaction.
func (s *Service) CompleteDelivery(ctx context.Context, jobID int64) (*Job, error) {
	var updated *Job
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		job, err := tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status != JobStatusAssigned && job.Status != JobStatusInTransit {
			return fmt.Errorf("%w: job %d is %s, not out for delivery", shared.ErrInvalidState, jobID, job.Status)
		}

		deliveredAt := s.now()
		if err := tx.UpdateJobStatus(ctx, jobID, JobStatusDelivered, &deliveredAt); err != nil {
			return err
		}
		if job.VehicleID != nil {
			if err := tx.UpdateVehicleStatus(ctx, *job.VehicleID, VehicleStatusAvailable); err != nil {
				return err
			}
		}
		if err := tx.UpdateOrderStatus(ctx, job.SalesOrderID, sales.OrderStatusDelivered); err != nil {
			return err
		}

		job.Status = JobStatusDelivered
		job.ActualDeliveryDate = &deliveredAt
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("delivery completed",
		slog.Int64("job_id", jobID),
		slog.Int64("order_id", updated.SalesOrderID))
	return updated, nil
}

// GetJob fetches one job.
func (s *Service) GetJob(ctx context.Context, id int64) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

// ListJobs returns jobs in the given status.
func (s *Service) ListJobs(ctx context.Context, status JobStatus) ([]Job, error) {
	return s.repo.ListJobs(ctx, status)
}

func (s *Service) recordHistory(ctx context.Context, actor *shared.Actor, requestID int64, action shared.ApprovalAction, note string) {
	if s.approvals == nil {
		return
	}
	entry := shared.ApprovalLog{
		Module:  approvalModule,
		RefID:   requestID,
		ActorID: actor.UserID,
		Action:  action,
		Note:    note,
	}
	if err := s.approvals.Record(ctx, entry); err != nil {
		s.logger.Error("record approval history", slog.Any("error", err))
	}
}
