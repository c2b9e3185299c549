package showroom

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryShowroomRepo struct {
	products   map[int64]Product
	dispatches map[int64]DispatchRequest
	jobs       []int64
	gatePasses []int64
	nextID     int64
}

type memoryShowroomTx struct {
	repo *memoryShowroomRepo
}

func newMemoryShowroomRepo() *memoryShowroomRepo {
	return &memoryShowroomRepo{
		products:   make(map[int64]Product),
		dispatches: make(map[int64]DispatchRequest),
	}
}

func (r *memoryShowroomRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryShowroomTx{repo: r})
}

func (r *memoryShowroomRepo) CreateProduct(ctx context.Context, p Product) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p.ID, nil
}

func (r *memoryShowroomRepo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memoryShowroomRepo) ListProducts(ctx context.Context, status *ProductStatus) ([]Product, error) {
	products := make([]Product, 0)
	for _, p := range r.products {
		if status == nil || p.Status == *status {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *memoryShowroomRepo) GetDispatch(ctx context.Context, id int64) (*DispatchRequest, error) {
	d, ok := r.dispatches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &d, nil
}

func (r *memoryShowroomRepo) ListDispatches(ctx context.Context, status DispatchStatus) ([]DispatchRequest, error) {
	dispatches := make([]DispatchRequest, 0)
	for _, d := range r.dispatches {
		if d.Status == status {
			dispatches = append(dispatches, d)
		}
	}
	return dispatches, nil
}

func (tx *memoryShowroomTx) GetDispatchForUpdate(ctx context.Context, id int64) (*DispatchRequest, error) {
	return tx.repo.GetDispatch(ctx, id)
}

func (tx *memoryShowroomTx) UpdateDispatchStatus(ctx context.Context, id int64, status DispatchStatus) error {
	d := tx.repo.dispatches[id]
	d.Status = status
	tx.repo.dispatches[id] = d
	return nil
}

func (tx *memoryShowroomTx) GetProductForUpdate(ctx context.Context, id int64) (*Product, error) {
	return tx.repo.GetProduct(ctx, id)
}

func (tx *memoryShowroomTx) UpdateProductStatus(ctx context.Context, id int64, status ProductStatus) error {
	p := tx.repo.products[id]
	p.Status = status
	tx.repo.products[id] = p
	return nil
}

func (tx *memoryShowroomTx) CreateDispatch(ctx context.Context, d DispatchRequest) (int64, error) {
	tx.repo.nextID++
	d.ID = tx.repo.nextID
	tx.repo.dispatches[d.ID] = d
	return d.ID, nil
}

func (tx *memoryShowroomTx) InsertTransportJob(ctx context.Context, salesOrderID int64) (int64, error) {
	tx.repo.jobs = append(tx.repo.jobs, salesOrderID)
	return int64(len(tx.repo.jobs)), nil
}

func (tx *memoryShowroomTx) InsertGatePass(ctx context.Context, dispatchID, salesOrderID int64, customerName, customerPhone string, vehicleNumber, photoRef *string) (int64, error) {
	tx.repo.gatePasses = append(tx.repo.gatePasses, dispatchID)
	return int64(len(tx.repo.gatePasses)), nil
}

func showroomActor() *shared.Actor {
	return &shared.Actor{UserID: 41, Name: "leela", Department: "showroom"}
}

func seedProduct(repo *memoryShowroomRepo, status ProductStatus) int64 {
	repo.nextID++
	id := repo.nextID
	repo.products[id] = Product{ID: id, Name: "teak chair", SKU: "TC-100", Category: "furniture", Price: 4500, Status: status}
	return id
}

func TestCreateDispatchMarksProductSold(t *testing.T) {
	repo := newMemoryShowroomRepo()
	productID := seedProduct(repo, ProductStatusAvailable)
	svc := NewService(repo, slog.Default())

	dispatch, err := svc.CreateDispatch(context.Background(), showroomActor(), CreateDispatchRequest{
		SalesOrderID:      42,
		ShowroomProductID: productID,
	})
	require.NoError(t, err)
	require.Equal(t, DispatchStatusPending, dispatch.Status)
	require.Equal(t, ProductStatusSold, repo.products[productID].Status)
}

func TestCreateDispatchSoldProductFails(t *testing.T) {
	repo := newMemoryShowroomRepo()
	productID := seedProduct(repo, ProductStatusSold)
	svc := NewService(repo, slog.Default())

	_, err := svc.CreateDispatch(context.Background(), showroomActor(), CreateDispatchRequest{
		SalesOrderID:      42,
		ShowroomProductID: productID,
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Empty(t, repo.dispatches)
}

func TestApproveDispatchOpensTransportJob(t *testing.T) {
	repo := newMemoryShowroomRepo()
	productID := seedProduct(repo, ProductStatusAvailable)
	svc := NewService(repo, slog.Default())

	dispatch, err := svc.CreateDispatch(context.Background(), showroomActor(), CreateDispatchRequest{
		SalesOrderID:      42,
		ShowroomProductID: productID,
	})
	require.NoError(t, err)

	approved, err := svc.ApproveDispatch(context.Background(), showroomActor(), dispatch.ID)
	require.NoError(t, err)
	require.Equal(t, DispatchStatusApproved, approved.Status)
	require.Equal(t, []int64{42}, repo.jobs)
}

func TestDispatchPickupCreatesGatePass(t *testing.T) {
	repo := newMemoryShowroomRepo()
	productID := seedProduct(repo, ProductStatusAvailable)
	svc := NewService(repo, slog.Default())

	dispatch, err := svc.CreateDispatch(context.Background(), showroomActor(), CreateDispatchRequest{
		SalesOrderID:      42,
		ShowroomProductID: productID,
	})
	require.NoError(t, err)
	_, err = svc.ApproveDispatch(context.Background(), showroomActor(), dispatch.ID)
	require.NoError(t, err)

	dispatched, err := svc.DispatchPickup(context.Background(), showroomActor(), dispatch.ID, DispatchPickupRequest{
		CustomerName:  "Ravi Kumar",
		CustomerPhone: "9900011122",
	})
	require.NoError(t, err)
	require.Equal(t, DispatchStatusDispatched, dispatched.Status)
	require.Equal(t, []int64{dispatch.ID}, repo.gatePasses)
}

func TestDispatchPickupRequiresApproval(t *testing.T) {
	repo := newMemoryShowroomRepo()
	productID := seedProduct(repo, ProductStatusAvailable)
	svc := NewService(repo, slog.Default())

	dispatch, err := svc.CreateDispatch(context.Background(), showroomActor(), CreateDispatchRequest{
		SalesOrderID:      42,
		ShowroomProductID: productID,
	})
	require.NoError(t, err)

	_, err = svc.DispatchPickup(context.Background(), showroomActor(), dispatch.ID, DispatchPickupRequest{
		CustomerName:  "Ravi Kumar",
		CustomerPhone: "9900011122",
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}
