package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (*SalesOrder, error)
	GetOrderByNumber(ctx context.Context, number string) (*SalesOrder, error)
	List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error)
	GenerateOrderNumber(ctx context.Context, date time.Time) (string, error)
}

// AuditPort records workflow transitions for later review.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the sales order workflow.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the sales service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOrder places a new order. Orders for part load or company delivery
// open a transport approval request in the same transaction and stay
// unconfirmed until transport signs off on the quoted cost.
func (s *Service) CreateOrder(ctx context.Context, actor *shared.Actor, req CreateSalesOrderRequest) (*SalesOrder, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	deliveryType := DeliveryType(req.DeliveryType)
	totalAmount := float64(req.Quantity) * req.UnitPrice
	if req.DiscountAmount > totalAmount {
		return nil, fmt.Errorf("%w: discount %.2f exceeds order total %.2f", shared.ErrValidation, req.DiscountAmount, totalAmount)
	}
	finalAmount := ComputeFinalAmount(totalAmount, req.DiscountAmount, req.TransportCost)

	order := SalesOrder{
		CustomerName:      req.CustomerName,
		CustomerContact:   req.CustomerContact,
		CustomerEmail:     req.CustomerEmail,
		CustomerAddress:   req.CustomerAddress,
		ShowroomProductID: req.ShowroomProductID,
		Quantity:          req.Quantity,
		UnitPrice:         req.UnitPrice,
		TotalAmount:       totalAmount,
		DiscountAmount:    req.DiscountAmount,
		TransportCost:     req.TransportCost,
		FinalAmount:       finalAmount,
		AmountPaid:        0,
		BalanceAmount:     finalAmount,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     PaymentStatusPending,
		OrderStatus:       OrderStatusPending,
		DeliveryType:      deliveryType,
		SalesPerson:       req.SalesPerson,
		Notes:             req.Notes,
	}
	if deliveryType.RequiresTransportApproval() {
		order.OrderStatus = OrderStatusPendingTransport
	}

	// Order numbers derive from a row count, so two creates racing each other
	// can draw the same number. The unique index on order_number catches the
	// loser; regenerate and retry rather than surface the conflict.
	for attempt := 1; ; attempt++ {
		orderNumber, err := s.repo.GenerateOrderNumber(ctx, s.now())
		if err != nil {
			return nil, fmt.Errorf("generate order number: %w", err)
		}
		order.OrderNumber = orderNumber

		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			id, err := tx.CreateOrder(ctx, order)
			if err != nil {
				return err
			}
			order.ID = id
			if deliveryType.RequiresTransportApproval() {
				if _, err := tx.InsertTransportApproval(ctx, id, deliveryType, req.TransportCost); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, shared.ErrDuplicate) && attempt < 3 {
			continue
		}
		return nil, err
	}

	s.recordAudit(ctx, actor, "sales_order.create", order.ID, map[string]any{
		"order_number":  order.OrderNumber,
		"delivery_type": string(deliveryType),
		"final_amount":  order.FinalAmount,
	})
	s.logger.Info("sales order created",
		slog.Int64("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("order_status", string(order.OrderStatus)))
	return &order, nil
}

// ConfirmTransportDemand resolves a rejected transport approval. Accepting
// the demand reprices the order with the demanded transport cost and
// confirms it; rejecting the demand cancels the order. The approval row is
// kept either way.
func (s *Service) ConfirmTransportDemand(ctx context.Context, actor *shared.Actor, requestID int64, action DemandAction) (*SalesOrder, error) {
	var updated *SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		demand, err := tx.GetDemandForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if demand.Status != ApprovalStatusRejected || demand.DemandAmount == nil {
			return fmt.Errorf("%w: approval request %d has no open demand", shared.ErrInvalidState, requestID)
		}

		order, err := tx.GetOrderForUpdate(ctx, demand.SalesOrderID)
		if err != nil {
			return err
		}
		if order.OrderStatus != OrderStatusPendingTransport {
			return fmt.Errorf("%w: order %s is %s, not awaiting transport approval", shared.ErrInvalidState, order.OrderNumber, order.OrderStatus)
		}

		switch action {
		case DemandActionAccept:
			newCost := *demand.DemandAmount
			finalAmount := ComputeFinalAmount(order.TotalAmount, order.DiscountAmount, newCost)
			balance := finalAmount - order.AmountPaid
			if err := tx.UpdateOrderTransport(ctx, order.ID, newCost, finalAmount, balance); err != nil {
				return err
			}
			if err := tx.UpdateOrderStatus(ctx, order.ID, OrderStatusConfirmed); err != nil {
				return err
			}
			if err := tx.UpdateDemandStatus(ctx, requestID, ApprovalStatusApproved); err != nil {
				return err
			}
			order.TransportCost = newCost
			order.FinalAmount = finalAmount
			order.BalanceAmount = balance
			order.OrderStatus = OrderStatusConfirmed
		case DemandActionReject:
			if err := tx.UpdateOrderStatus(ctx, order.ID, OrderStatusCancelled); err != nil {
				return err
			}
			order.OrderStatus = OrderStatusCancelled
		default:
			return fmt.Errorf("%w: unknown demand action %q", shared.ErrValidation, action)
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "sales_order.demand_"+string(action), updated.ID, map[string]any{
		"request_id":   requestID,
		"order_status": string(updated.OrderStatus),
		"final_amount": updated.FinalAmount,
	})
	s.logger.Info("transport demand resolved",
		slog.Int64("request_id", requestID),
		slog.String("action", string(action)),
		slog.String("order_status", string(updated.OrderStatus)))
	return updated, nil
}

// GetOrder fetches one order.
func (s *Service) GetOrder(ctx context.Context, id int64) (*SalesOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// GetOrderByNumber fetches an order by its number.
func (s *Service) GetOrderByNumber(ctx context.Context, number string) (*SalesOrder, error) {
	return s.repo.GetOrderByNumber(ctx, number)
}

// ListOrders returns orders matching the filters plus the total match count.
func (s *Service) ListOrders(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return s.repo.List(ctx, req)
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if actor != nil {
		actorID = actor.UserID
	}
	entry := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "sales_order",
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("record audit log", slog.Any("error", err))
	}
}
