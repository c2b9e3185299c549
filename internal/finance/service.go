package finance

import (
	"context"
	"errors"
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
	GetTransaction(ctx context.Context, id int64) (*Transaction, error)
	ListOrderTransactions(ctx context.Context, orderID int64) ([]Transaction, error)
	ListPendingApprovals(ctx context.Context) ([]PendingApproval, error)
}

// IdempotencyPort deduplicates payment submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ApprovalHistoryPort appends to the cross-department approval ledger.
type ApprovalHistoryPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service implements payment submission and the finance approval mirror.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	approvals   ApprovalHistoryPort
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs the finance service.
func NewService(repo RepositoryPort, idempotency IdempotencyPort, approvals ApprovalHistoryPort, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		idempotency: idempotency,
		approvals:   approvals,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

const idempotencyModule = "finance.payment"

// SubmitPayment records a customer payment against an order and parks it for
// finance approval. Amounts on the order do not move until approval.
func (s *Service) SubmitPayment(ctx context.Context, actor *shared.Actor, orderID int64, req SubmitPaymentRequest) (*Transaction, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, req.IdempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, fmt.Errorf("%w: payment already submitted", shared.ErrDuplicate)
			}
			return nil, err
		}
	}

	var created *Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.OrderStatus == sales.OrderStatusCancelled {
			return fmt.Errorf("%w: order %s is cancelled", shared.ErrInvalidState, order.OrderNumber)
		}
		if req.Amount > order.BalanceAmount {
			return fmt.Errorf("%w: payment %.2f exceeds outstanding balance %.2f", shared.ErrConsistency, req.Amount, order.BalanceAmount)
		}

		txn := Transaction{
			SalesOrderID:    orderID,
			TxnType:         TxnTypePayment,
			Amount:          req.Amount,
			PaymentMethod:   req.PaymentMethod,
			ReferenceNumber: req.ReferenceNumber,
			Status:          TxnStatusPending,
			Notes:           req.Notes,
			SubmittedBy:     actor.UserID,
		}
		id, err := tx.CreateTransaction(ctx, txn)
		if err != nil {
			return err
		}
		txn.ID = id

		if err := tx.UpdateOrderPayment(ctx, orderID, order.AmountPaid, order.BalanceAmount, sales.PaymentStatusPendingFinance); err != nil {
			return err
		}
		created = &txn
		return nil
	})
	if err != nil {
		// free the key so the caller can retry after a transient failure
		if req.IdempotencyKey != "" && s.idempotency != nil && !errors.Is(err, shared.ErrDuplicate) {
			if delErr := s.idempotency.Delete(ctx, req.IdempotencyKey); delErr != nil {
				s.logger.Error("release idempotency key", slog.Any("error", delErr))
			}
		}
		return nil, err
	}

	s.recordHistory(ctx, actor, created.ID, shared.ApprovalSubmit, fmt.Sprintf("payment %.2f", req.Amount))
	s.logger.Info("payment submitted",
		slog.Int64("order_id", orderID),
		slog.Int64("txn_id", created.ID),
		slog.Float64("amount", req.Amount))
	return created, nil
}

// DecidePayment settles a pending transaction. Approval applies the amount
// to the order; rejection leaves amount_paid and balance_amount exactly as
// they were before submission.
func (s *Service) DecidePayment(ctx context.Context, actor *shared.Actor, orderID, txnID int64, req DecidePaymentRequest) (*Transaction, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	var decided *Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := tx.GetTransactionForUpdate(ctx, txnID)
		if err != nil {
			return err
		}
		if txn.SalesOrderID != orderID {
			return fmt.Errorf("%w: transaction %d does not belong to order %d", shared.ErrConsistency, txnID, orderID)
		}
		if txn.Status != TxnStatusPending {
			return fmt.Errorf("%w: transaction %d already %s", shared.ErrInvalidState, txnID, txn.Status)
		}

		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		decidedAt := s.now()
		if req.Approved {
			amountPaid := order.AmountPaid + txn.Amount
			balance := order.FinalAmount - amountPaid
			if balance < 0 {
				return fmt.Errorf("%w: approving %.2f would overpay order %s", shared.ErrConsistency, txn.Amount, order.OrderNumber)
			}
			status := sales.PaymentStatusPending
			if balance == 0 {
				status = sales.PaymentStatusPaid
			}
			if err := tx.DecideTransaction(ctx, txnID, TxnStatusApproved, req.Notes, actor.UserID, decidedAt); err != nil {
				return err
			}
			if err := tx.UpdateOrderPayment(ctx, orderID, amountPaid, balance, status); err != nil {
				return err
			}
			txn.Status = TxnStatusApproved
		} else {
			if err := tx.DecideTransaction(ctx, txnID, TxnStatusRejected, req.Notes, actor.UserID, decidedAt); err != nil {
				return err
			}
			if err := tx.UpdateOrderPayment(ctx, orderID, order.AmountPaid, order.BalanceAmount, sales.PaymentStatusRejected); err != nil {
				return err
			}
			txn.Status = TxnStatusRejected
		}
		txn.DecidedBy = &actor.UserID
		txn.DecidedAt = &decidedAt
		decided = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := shared.ApprovalReject
	if req.Approved {
		action = shared.ApprovalApprove
	}
	s.recordHistory(ctx, actor, txnID, action, "")
	s.logger.Info("payment decided",
		slog.Int64("txn_id", txnID),
		slog.Bool("approved", req.Approved))
	return decided, nil
}

// ListOrderTransactions returns the payment history of an order.
func (s *Service) ListOrderTransactions(ctx context.Context, orderID int64) ([]Transaction, error) {
	return s.repo.ListOrderTransactions(ctx, orderID)
}

// ListPendingApprovals returns the finance approval queue.
func (s *Service) ListPendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	return s.repo.ListPendingApprovals(ctx)
}

func (s *Service) recordHistory(ctx context.Context, actor *shared.Actor, txnID int64, action shared.ApprovalAction, note string) {
	if s.approvals == nil {
		return
	}
	entry := shared.ApprovalLog{
		Module:  "finance_transaction",
		RefID:   txnID,
		ActorID: actor.UserID,
		Action:  action,
		Note:    note,
	}
	if err := s.approvals.Record(ctx, entry); err != nil {
		s.logger.Error("record approval history", slog.Any("error", err))
	}
}
