package production

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryProductionRepo struct {
	orders map[int64]Order
	nextID int64
}

type memoryProductionTx struct {
	repo *memoryProductionRepo
}

func newMemoryProductionRepo() *memoryProductionRepo {
	return &memoryProductionRepo{orders: make(map[int64]Order)}
}

func (r *memoryProductionRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryProductionTx{repo: r})
}

func (r *memoryProductionRepo) Get(ctx context.Context, id int64) (*Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (r *memoryProductionRepo) List(ctx context.Context) ([]Order, error) {
	orders := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, o)
	}
	return orders, nil
}

func (tx *memoryProductionTx) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryProductionTx) UpdateStatus(ctx context.Context, id int64, status OrderStatus, startedAt, completedAt *time.Time) error {
	o := tx.repo.orders[id]
	o.Status = status
	if startedAt != nil {
		o.StartedAt = startedAt
	}
	if completedAt != nil {
		o.CompletedAt = completedAt
	}
	tx.repo.orders[id] = o
	return nil
}

func (tx *memoryProductionTx) Create(ctx context.Context, o Order) (int64, error) {
	tx.repo.nextID++
	o.ID = tx.repo.nextID
	tx.repo.orders[o.ID] = o
	return o.ID, nil
}

func productionActor() *shared.Actor {
	return &shared.Actor{UserID: 51, Name: "suresh", Department: "production"}
}

func TestProductionLifecycle(t *testing.T) {
	repo := newMemoryProductionRepo()
	svc := NewService(repo, slog.Default())

	order, err := svc.Create(context.Background(), productionActor(), CreateOrderRequest{
		ProductName: "teak chair",
		Quantity:    20,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)

	started, err := svc.Start(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)

	completed, err := svc.Complete(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
}

func TestProductionSkipStartFails(t *testing.T) {
	repo := newMemoryProductionRepo()
	svc := NewService(repo, slog.Default())

	order, err := svc.Create(context.Background(), productionActor(), CreateOrderRequest{
		ProductName: "teak table",
		Quantity:    5,
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}
