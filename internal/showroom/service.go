package showroom

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateProduct(ctx context.Context, p Product) (int64, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, status *ProductStatus) ([]Product, error)
	GetDispatch(ctx context.Context, id int64) (*DispatchRequest, error)
	ListDispatches(ctx context.Context, status DispatchStatus) ([]DispatchRequest, error)
}

// Service implements showroom stock and the dispatch workflow.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the showroom service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// AddProduct puts a unit on the floor.
func (s *Service) AddProduct(ctx context.Context, req AddProductRequest) (*Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	product := Product{
		Name:     req.Name,
		SKU:      req.SKU,
		Category: req.Category,
		Price:    req.Price,
		Status:   ProductStatusAvailable,
		Notes:    req.Notes,
	}
	id, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	product.ID = id
	s.logger.Info("showroom product added", slog.Int64("product_id", id), slog.String("sku", req.SKU))
	return &product, nil
}

// GetProduct fetches one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns floor stock, optionally only available units.
func (s *Service) ListProducts(ctx context.Context, status *ProductStatus) ([]Product, error) {
	return s.repo.ListProducts(ctx, status)
}

// CreateDispatch opens a dispatch request for a sold unit. The product must
// still be available; it is marked sold in the same transaction.
func (s *Service) CreateDispatch(ctx context.Context, actor *shared.Actor, req CreateDispatchRequest) (*DispatchRequest, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	dispatch := DispatchRequest{
		SalesOrderID:      req.SalesOrderID,
		ShowroomProductID: req.ShowroomProductID,
		Status:            DispatchStatusPending,
		RequestedBy:       actor.UserID,
		Notes:             req.Notes,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, req.ShowroomProductID)
		if err != nil {
			return err
		}
		if product.Status != ProductStatusAvailable {
			return fmt.Errorf("%w: product %s is already %s", shared.ErrInvalidState, product.SKU, product.Status)
		}
		if err := tx.UpdateProductStatus(ctx, product.ID, ProductStatusSold); err != nil {
			return err
		}
		id, err := tx.CreateDispatch(ctx, dispatch)
		if err != nil {
			return err
		}
		dispatch.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dispatch request opened",
		slog.Int64("dispatch_id", dispatch.ID),
		slog.Int64("order_id", req.SalesOrderID))
	return &dispatch, nil
}

// ApproveDispatch accepts a pending dispatch and opens a pending transport
// job for the order.
func (s *Service) ApproveDispatch(ctx context.Context, actor *shared.Actor, dispatchID int64) (*DispatchRequest, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}

	var approved *DispatchRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		dispatch, err := tx.GetDispatchForUpdate(ctx, dispatchID)
		if err != nil {
			return err
		}
		if dispatch.Status != DispatchStatusPending {
			return fmt.Errorf("%w: dispatch %d already %s", shared.ErrInvalidState, dispatchID, dispatch.Status)
		}
		if err := tx.UpdateDispatchStatus(ctx, dispatchID, DispatchStatusApproved); err != nil {
			return err
		}
		if _, err := tx.InsertTransportJob(ctx, dispatch.SalesOrderID); err != nil {
			return err
		}
		dispatch.Status = DispatchStatusApproved
		approved = dispatch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dispatch approved", slog.Int64("dispatch_id", dispatchID))
	return approved, nil
}

// DispatchPickup hands an approved dispatch to the gate by creating a gate
// pass with the customer identity the watchman will verify.
func (s *Service) DispatchPickup(ctx context.Context, actor *shared.Actor, dispatchID int64, req DispatchPickupRequest) (*DispatchRequest, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	var dispatched *DispatchRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		dispatch, err := tx.GetDispatchForUpdate(ctx, dispatchID)
		if err != nil {
			return err
		}
		if dispatch.Status != DispatchStatusApproved {
			return fmt.Errorf("%w: dispatch %d is %s, not approved", shared.ErrInvalidState, dispatchID, dispatch.Status)
		}
		if err := tx.UpdateDispatchStatus(ctx, dispatchID, DispatchStatusDispatched); err != nil {
			return err
		}
		if _, err := tx.InsertGatePass(ctx, dispatchID, dispatch.SalesOrderID, req.CustomerName, req.CustomerPhone, req.VehicleNumber, req.PhotoRef); err != nil {
			return err
		}
		dispatch.Status = DispatchStatusDispatched
		dispatched = dispatch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dispatch handed to gate", slog.Int64("dispatch_id", dispatchID))
	return dispatched, nil
}

// CompleteDispatch closes a dispatched request once the pickup cleared the
// gate.
func (s *Service) CompleteDispatch(ctx context.Context, dispatchID int64) (*DispatchRequest, error) {
	var completed *DispatchRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		dispatch, err := tx.GetDispatchForUpdate(ctx, dispatchID)
		if err != nil {
			return err
		}
		if dispatch.Status != DispatchStatusDispatched {
			return fmt.Errorf("%w: dispatch %d is %s, not dispatched", shared.ErrInvalidState, dispatchID, dispatch.Status)
		}
		if err := tx.UpdateDispatchStatus(ctx, dispatchID, DispatchStatusCompleted); err != nil {
			return err
		}
		dispatch.Status = DispatchStatusCompleted
		completed = dispatch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// GetDispatch fetches one dispatch request.
func (s *Service) GetDispatch(ctx context.Context, id int64) (*DispatchRequest, error) {
	return s.repo.GetDispatch(ctx, id)
}

// ListDispatches returns dispatch requests in the given status.
func (s *Service) ListDispatches(ctx context.Context, status DispatchStatus) ([]DispatchRequest, error) {
	return s.repo.ListDispatches(ctx, status)
}
