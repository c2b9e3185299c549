package sales

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func allowAll(string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}

func newTestRouter(repo *memorySalesRepo) chi.Router {
	h := NewHandler(slog.Default(), newTestService(repo))
	r := chi.NewRouter()
	h.MountRoutes(r, allowAll)
	return r
}

func TestCreateOrderEndpoint(t *testing.T) {
	router := newTestRouter(newMemorySalesRepo())

	body, _ := json.Marshal(CreateSalesOrderRequest{
		CustomerName:      "Ravi Traders",
		ShowroomProductID: 1,
		Quantity:          2,
		UnitPrice:         1500,
		TransportCost:     500,
		PaymentMethod:     "upi",
		DeliveryType:      "part load",
		SalesPerson:       "asha",
	})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created SalesOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, OrderStatusPendingTransport, created.OrderStatus)
	require.Equal(t, 3500.0, created.FinalAmount)
	require.NotEmpty(t, created.OrderNumber)
}

func TestShowOrderNotFound(t *testing.T) {
	router := newTestRouter(newMemorySalesRepo())

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Not Found")
}

func TestCreateOrderBadDeliveryType(t *testing.T) {
	router := newTestRouter(newMemorySalesRepo())

	body := []byte(`{"customer_name":"Ravi Traders","showroom_product_id":1,"quantity":1,"unit_price":100,"payment_method":"cash","delivery_type":"parachute","sales_person":"asha"}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
