package finance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryFinanceRepo struct {
	orders map[int64]sales.SalesOrder
	txns   map[int64]Transaction
	nextID int64
}

type memoryFinanceTx struct {
	repo *memoryFinanceRepo
}

func newMemoryFinanceRepo() *memoryFinanceRepo {
	return &memoryFinanceRepo{
		orders: make(map[int64]sales.SalesOrder),
		txns:   make(map[int64]Transaction),
	}
}

func (r *memoryFinanceRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryFinanceTx{repo: r})
}

func (r *memoryFinanceRepo) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	t, ok := r.txns[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &t, nil
}

func (r *memoryFinanceRepo) ListOrderTransactions(ctx context.Context, orderID int64) ([]Transaction, error) {
	txns := make([]Transaction, 0)
	for _, t := range r.txns {
		if t.SalesOrderID == orderID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (r *memoryFinanceRepo) ListPendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	approvals := make([]PendingApproval, 0)
	for _, t := range r.txns {
		if t.Status == TxnStatusPending {
			approvals = append(approvals, PendingApproval{Transaction: t})
		}
	}
	return approvals, nil
}

func (tx *memoryFinanceTx) GetOrderForUpdate(ctx context.Context, orderID int64) (*sales.SalesOrder, error) {
	o, ok := tx.repo.orders[orderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (tx *memoryFinanceTx) CreateTransaction(ctx context.Context, txn Transaction) (int64, error) {
	tx.repo.nextID++
	txn.ID = tx.repo.nextID
	tx.repo.txns[txn.ID] = txn
	return txn.ID, nil
}

func (tx *memoryFinanceTx) GetTransactionForUpdate(ctx context.Context, txnID int64) (*Transaction, error) {
	return tx.repo.GetTransaction(ctx, txnID)
}

func (tx *memoryFinanceTx) DecideTransaction(ctx context.Context, txnID int64, status TxnStatus, notes *string, decidedBy int64, decidedAt time.Time) error {
	t := tx.repo.txns[txnID]
	t.Status = status
	if notes != nil {
		t.Notes = notes
	}
	t.DecidedBy = &decidedBy
	t.DecidedAt = &decidedAt
	tx.repo.txns[txnID] = t
	return nil
}

func (tx *memoryFinanceTx) UpdateOrderPayment(ctx context.Context, orderID int64, amountPaid, balanceAmount float64, status sales.PaymentStatus) error {
	o := tx.repo.orders[orderID]
	o.AmountPaid = amountPaid
	o.BalanceAmount = balanceAmount
	o.PaymentStatus = status
	tx.repo.orders[orderID] = o
	return nil
}

type memoryIdempotency struct {
	keys map[string]bool
}

func (m *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func seedOrder(repo *memoryFinanceRepo, finalAmount float64) int64 {
	repo.nextID++
	id := repo.nextID
	repo.orders[id] = sales.SalesOrder{
		ID:            id,
		OrderNumber:   "SO-2608-0001",
		FinalAmount:   finalAmount,
		AmountPaid:    0,
		BalanceAmount: finalAmount,
		PaymentStatus: sales.PaymentStatusPending,
		OrderStatus:   sales.OrderStatusConfirmed,
	}
	return id
}

func financeActor() *shared.Actor {
	return &shared.Actor{UserID: 21, Name: "meera", Department: "finance"}
}

func newTestService(repo *memoryFinanceRepo) *Service {
	return NewService(repo, &memoryIdempotency{}, nil, slog.Default())
}

func TestSubmitPaymentParksForApproval(t *testing.T) {
	repo := newMemoryFinanceRepo()
	orderID := seedOrder(repo, 3900)
	svc := newTestService(repo)

	txn, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, SubmitPaymentRequest{
		Amount:        2000,
		PaymentMethod: "upi",
	})
	require.NoError(t, err)
	require.Equal(t, TxnStatusPending, txn.Status)

	order := repo.orders[orderID]
	require.Equal(t, sales.PaymentStatusPendingFinance, order.PaymentStatus)
	// amounts move only on approval
	require.Equal(t, 0.0, order.AmountPaid)
	require.Equal(t, 3900.0, order.BalanceAmount)
}

func TestSubmitPaymentOverBalance(t *testing.T) {
	repo := newMemoryFinanceRepo()
	orderID := seedOrder(repo, 1000)
	svc := newTestService(repo)

	_, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, SubmitPaymentRequest{
		Amount:        1500,
		PaymentMethod: "cash",
	})
	require.ErrorIs(t, err, shared.ErrConsistency)
	require.Empty(t, repo.txns)
}

func TestSubmitPaymentDuplicateKey(t *testing.T) {
	repo := newMemoryFinanceRepo()
	orderID := seedOrder(repo, 3900)
	svc := newTestService(repo)

	req := SubmitPaymentRequest{Amount: 500, PaymentMethod: "cash", IdempotencyKey: "pay-1"}
	_, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, req)
	require.NoError(t, err)

	_, err = svc.SubmitPayment(context.Background(), financeActor(), orderID, req)
	require.ErrorIs(t, err, shared.ErrDuplicate)
	require.Len(t, repo.txns, 1)
}

func TestApprovePaymentAppliesAmount(t *testing.T) {
	repo := newMemoryFinanceRepo()
	orderID := seedOrder(repo, 3900)
	svc := newTestService(repo)

	txn, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, SubmitPaymentRequest{
		Amount:        2000,
		PaymentMethod: "upi",
	})
	require.NoError(t, err)

	decided, err := svc.DecidePayment(context.Background(), financeActor(), orderID, txn.ID, DecidePaymentRequest{Approved: true})
	require.NoError(t, err)
	require.Equal(t, TxnStatusApproved, decided.Status)

	order := repo.orders[orderID]
	require.Equal(t, 2000.0, order.AmountPaid)
	require.Equal(t, 1900.0, order.BalanceAmount)
	require.Equal(t, order.FinalAmount, order.AmountPaid+order.BalanceAmount)
	require.Equal(t, sales.PaymentStatusPending, order.PaymentStatus)
}

func TestApproveFinalPaymentMarksPaid(t *testing.T) {
	repo := newMemoryFinanceRepo()
	orderID := seedOrder(repo, 3900)
	svc := newTestService(repo)

	first, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, SubmitPaymentRequest{Amount: 2000, PaymentMethod: "upi"})
	require.NoError(t, err)
	_, err = svc.DecidePayment(context.Background(), financeActor(), orderID, first.ID, DecidePaymentRequest{Approved: true})
	require.NoError(t, err)

	second, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, SubmitPaymentRequest{Amount: 1900, PaymentMethod: "upi"})
	require.NoError(t, err)
	_, err = svc.DecidePayment(context.Background(), financeActor(), orderID, second.ID, DecidePaymentRequest{Approved: true})
	require.NoError(t, err)

	order := repo.orders[orderID]
	require.Equal(t, 3900.0, order.AmountPaid)
	require.Equal(t, 0.0, order.BalanceAmount)
	require.Equal(t, sales.PaymentStatusPaid, order.PaymentStatus)
}

func TestRejectPaymentRestoresAmountsExactly(t *testing.T) {
	repo := newMemoryFinanceRepo()
	orderID := seedOrder(repo, 3900)
	svc := newTestService(repo)

	txn, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, SubmitPaymentRequest{
		Amount:        2000,
		PaymentMethod: "upi",
	})
	require.NoError(t, err)

	decided, err := svc.DecidePayment(context.Background(), financeActor(), orderID, txn.ID, DecidePaymentRequest{Approved: false})
	require.NoError(t, err)
	require.Equal(t, TxnStatusRejected, decided.Status)

	order := repo.orders[orderID]
	require.Equal(t, 0.0, order.AmountPaid)
	require.Equal(t, 3900.0, order.BalanceAmount)
	require.Equal(t, sales.PaymentStatusRejected, order.PaymentStatus)
}

func TestDecidePaymentTwiceFails(t *testing.T) {
	repo := newMemoryFinanceRepo()
	orderID := seedOrder(repo, 3900)
	svc := newTestService(repo)

	txn, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, SubmitPaymentRequest{Amount: 500, PaymentMethod: "cash"})
	require.NoError(t, err)

	_, err = svc.DecidePayment(context.Background(), financeActor(), orderID, txn.ID, DecidePaymentRequest{Approved: true})
	require.NoError(t, err)

	_, err = svc.DecidePayment(context.Background(), financeActor(), orderID, txn.ID, DecidePaymentRequest{Approved: true})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDecidePaymentWrongOrder(t *testing.T) {
	repo := newMemoryFinanceRepo()
	orderID := seedOrder(repo, 3900)
	otherID := seedOrder(repo, 1000)
	svc := newTestService(repo)

	txn, err := svc.SubmitPayment(context.Background(), financeActor(), orderID, SubmitPaymentRequest{Amount: 500, PaymentMethod: "cash"})
	require.NoError(t, err)

	_, err = svc.DecidePayment(context.Background(), financeActor(), otherID, txn.ID, DecidePaymentRequest{Approved: true})
	require.ErrorIs(t, err, shared.ErrConsistency)
}
