package inventory

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryInventoryRepo struct {
	items  map[int64]Item
	nextID int64
}

type memoryInventoryTx struct {
	repo *memoryInventoryRepo
}

func newMemoryInventoryRepo() *memoryInventoryRepo {
	return &memoryInventoryRepo{items: make(map[int64]Item)}
}

func (r *memoryInventoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryInventoryTx{repo: r})
}

func (r *memoryInventoryRepo) Create(ctx context.Context, it Item) (int64, error) {
	r.nextID++
	it.ID = r.nextID
	r.items[it.ID] = it
	return it.ID, nil
}

func (r *memoryInventoryRepo) Get(ctx context.Context, id int64) (*Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &it, nil
}

func (r *memoryInventoryRepo) List(ctx context.Context) ([]Item, error) {
	items := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		items = append(items, it)
	}
	return items, nil
}

func (r *memoryInventoryRepo) ListLowStock(ctx context.Context) ([]Item, error) {
	items := make([]Item, 0)
	for _, it := range r.items {
		if it.Quantity <= it.ReorderLevel {
			items = append(items, it)
		}
	}
	return items, nil
}

func (tx *memoryInventoryTx) GetForUpdate(ctx context.Context, id int64) (*Item, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryInventoryTx) SetQuantity(ctx context.Context, id int64, quantity float64) error {
	it := tx.repo.items[id]
	it.Quantity = quantity
	tx.repo.items[id] = it
	return nil
}

func TestReceiveAndIssue(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, slog.Default())

	item, err := svc.AddItem(context.Background(), AddItemRequest{
		ItemName:     "teak plank",
		SKU:          "TP-10",
		Unit:         "pcs",
		ReorderLevel: 5,
	})
	require.NoError(t, err)

	got, err := svc.Receive(context.Background(), item.ID, AdjustRequest{Quantity: 20})
	require.NoError(t, err)
	require.Equal(t, 20.0, got.Quantity)

	got, err = svc.Issue(context.Background(), item.ID, AdjustRequest{Quantity: 12})
	require.NoError(t, err)
	require.Equal(t, 8.0, got.Quantity)
}

func TestIssueCannotOverdraw(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, slog.Default())

	item, err := svc.AddItem(context.Background(), AddItemRequest{
		ItemName: "hinge", SKU: "HG-1", Unit: "pcs",
	})
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), item.ID, AdjustRequest{Quantity: 3})
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), item.ID, AdjustRequest{Quantity: 5})
	require.ErrorIs(t, err, shared.ErrConsistency)

	got, err := svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, 3.0, got.Quantity)
}

func TestLowStockQuery(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, slog.Default())

	low, err := svc.AddItem(context.Background(), AddItemRequest{ItemName: "screw", SKU: "SC-1", Unit: "box", ReorderLevel: 10})
	require.NoError(t, err)
	ok, err := svc.AddItem(context.Background(), AddItemRequest{ItemName: "glue", SKU: "GL-1", Unit: "can", ReorderLevel: 2})
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), low.ID, AdjustRequest{Quantity: 4})
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), ok.ID, AdjustRequest{Quantity: 9})
	require.NoError(t, err)

	items, err := svc.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "screw", items[0].ItemName)
}
