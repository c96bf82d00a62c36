package service

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/catalog"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
	"github.com/Lixing-Zhang/ecommerce-backend/pkg/logger"
)

// catalogServer serves GET /api/products/{id} from a mutable price table
type catalogServer struct {
	mu     sync.Mutex
	prices map[string]string
}

func (c *catalogServer) set(id, price string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[id] = price
}

func (c *catalogServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := strings.TrimPrefix(r.URL.Path, "/api/products/")
	price, ok := c.prices[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Product not found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"` + id + `","name":"Item","price":` + price + `}`))
}

func newCatalogClient(t *testing.T, prices map[string]string) (*catalog.Client, *catalogServer) {
	t.Helper()

	cs := &catalogServer{prices: prices}
	srv := httptest.NewServer(cs)
	t.Cleanup(srv.Close)
	return catalog.NewClient(srv.URL, 5*time.Second, logger.Discard()), cs
}

func TestCreateOrder_StoresFrozenPriceInCents(t *testing.T) {
	client, _ := newCatalogClient(t, map[string]string{phoneID: "1999.99"})
	svc, db := newTestOrderService(t, client)
	ctx := context.Background()

	id, err := svc.CreateOrder(ctx, models.OrderRequest{
		DeliveryAddress: "ул. Ленина, д. 1",
		Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(2)}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	order, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ул. Ленина, д. 1", order.DeliveryAddress)
	require.Len(t, order.Items, 1)
	assert.Equal(t, phoneID, order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, int64(199999), order.Items[0].PriceCents)
	assert.Equal(t, "1999.99", order.Items[0].Price().StringFixed(2))

	orders, items := countRows(t, db)
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, items)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	client, _ := newCatalogClient(t, map[string]string{})
	svc, db := newTestOrderService(t, client)

	_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
		DeliveryAddress: "ул. Ленина, д. 1",
		Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(2)}},
	})

	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindProductNotFound, ce.Kind)
	assert.Equal(t, 0, ce.ItemIndex)
	assert.Equal(t, phoneID, ce.ProductID)
	assert.Contains(t, ce.Message, phoneID)

	orders, items := countRows(t, db)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestCreateOrder_ShortAddress(t *testing.T) {
	svc, db := newTestOrderService(t, newStubCatalog().price(phoneID, "10.00"))

	_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
		DeliveryAddress: "123",
		Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(1)}},
	})

	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindValidationFailed, ce.Kind)
	require.Len(t, ce.Violations, 1)
	assert.Equal(t, "deliveryAddress", ce.Violations[0].Field)

	orders, _ := countRows(t, db)
	assert.Zero(t, orders)
}

func TestCreateOrder_NoItems(t *testing.T) {
	stub := newStubCatalog()
	svc, db := newTestOrderService(t, stub)

	for _, products := range [][]models.OrderItemRequest{nil, {}} {
		_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
			DeliveryAddress: "Baker Street 221B",
			Products:        products,
		})

		var ce *CreateError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, KindValidationFailed, ce.Kind)
		require.Len(t, ce.Violations, 1)
		assert.Equal(t, "products", ce.Violations[0].Field)
	}

	assert.Empty(t, stub.calls)
	orders, _ := countRows(t, db)
	assert.Zero(t, orders)
}

func TestCreateOrder_ProductServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := catalog.NewClient(url, time.Second, logger.Discard())
	svc, db := newTestOrderService(t, client)

	_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
		DeliveryAddress: "Baker Street 221B",
		Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(1)}},
	})

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindRemoteTransport, kind)

	orders, items := countRows(t, db)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestCreateOrder_RemoteFailureKinds(t *testing.T) {
	tests := []struct {
		outcome catalog.Outcome
		status  int
		want    Kind
	}{
		{catalog.OutcomeClientError, 400, KindRemoteClientError},
		{catalog.OutcomeServerError, 500, KindRemoteServerError},
		{catalog.OutcomeServerError, 204, KindRemoteServerError},
		{catalog.OutcomeRedirect, 302, KindRemoteRedirect},
		{catalog.OutcomeTransport, 0, KindRemoteTransport},
		{catalog.OutcomeDecode, 200, KindRemoteDecode},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			stub := newStubCatalog().fail(phoneID, tt.outcome, tt.status)
			svc, db := newTestOrderService(t, stub)

			_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
				DeliveryAddress: "Baker Street 221B",
				Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(1)}},
			})

			var ce *CreateError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.want, ce.Kind)
			assert.NotContains(t, ce.Message, "boom", "causes stay out of the client message")
			assert.ErrorContains(t, err, "boom", "causes stay in the error chain")

			orders, _ := countRows(t, db)
			assert.Zero(t, orders)
		})
	}
}

func TestCreateOrder_AbortsOnFirstFailedLookup(t *testing.T) {
	stub := newStubCatalog().price(laptopID, "500.00")
	svc, db := newTestOrderService(t, stub)

	_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
		DeliveryAddress: "Baker Street 221B",
		Products: []models.OrderItemRequest{
			{ProductID: ghostID, Quantity: qty(1)},
			{ProductID: laptopID, Quantity: qty(1)},
		},
	})

	kind, _ := KindOf(err)
	assert.Equal(t, KindProductNotFound, kind)
	assert.Equal(t, []string{ghostID}, stub.calls, "later items are never looked up")

	orders, items := countRows(t, db)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestCreateOrder_FirstFailureWins(t *testing.T) {
	stub := newStubCatalog().price(laptopID, "500.00")
	svc, _ := newTestOrderService(t, stub)

	_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
		DeliveryAddress: "Baker Street 221B",
		Products: []models.OrderItemRequest{
			{ProductID: ghostID, Quantity: qty(1)},
			{ProductID: laptopID, Quantity: qty(-3)},
		},
	})

	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindProductNotFound, ce.Kind)
	assert.Equal(t, 0, ce.ItemIndex)
	assert.Equal(t, ghostID, ce.ProductID)
}

func TestCreateOrder_InvalidItem(t *testing.T) {
	tests := []struct {
		name      string
		item      models.OrderItemRequest
		wantField string
	}{
		{"missing product id", models.OrderItemRequest{Quantity: qty(1)}, "products[1].productId"},
		{"malformed product id", models.OrderItemRequest{ProductID: "not-a-uuid", Quantity: qty(1)}, "products[1].productId"},
		{"missing quantity", models.OrderItemRequest{ProductID: laptopID}, "products[1].quantity"},
		{"zero quantity", models.OrderItemRequest{ProductID: laptopID, Quantity: qty(0)}, "products[1].quantity"},
		{"negative quantity", models.OrderItemRequest{ProductID: laptopID, Quantity: qty(-1)}, "products[1].quantity"},
		{"quantity beyond 32 bits", models.OrderItemRequest{ProductID: laptopID, Quantity: qty(math.MaxInt32 + 1)}, "products[1].quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubCatalog().price(phoneID, "10.00").price(laptopID, "20.00")
			svc, db := newTestOrderService(t, stub)

			_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
				DeliveryAddress: "Baker Street 221B",
				Products: []models.OrderItemRequest{
					{ProductID: phoneID, Quantity: qty(1)},
					tt.item,
				},
			})

			var ce *CreateError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, KindInvalidItem, ce.Kind)
			assert.Equal(t, 1, ce.ItemIndex)
			require.Len(t, ce.Violations, 1)
			assert.Equal(t, tt.wantField, ce.Violations[0].Field)
			assert.Equal(t, []string{phoneID}, stub.calls, "no lookup for a structurally invalid item")

			orders, _ := countRows(t, db)
			assert.Zero(t, orders)
		})
	}
}

func TestCreateOrder_ReportsAddressAndItemTogether(t *testing.T) {
	stub := newStubCatalog().price(phoneID, "10.00")
	svc, _ := newTestOrderService(t, stub)

	_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
		DeliveryAddress: "123",
		Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(-1)}},
	})

	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindValidationFailed, ce.Kind)

	fields := make([]string, 0, len(ce.Violations))
	for _, v := range ce.Violations {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"deliveryAddress", "products[0].quantity"}, fields)
	assert.Empty(t, stub.calls)
}

func TestCreateOrder_NonPositiveCatalogPrice(t *testing.T) {
	stub := newStubCatalog().price(phoneID, "10.00").price(laptopID, "0")
	svc, db := newTestOrderService(t, stub)

	_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
		DeliveryAddress: "Baker Street 221B",
		Products: []models.OrderItemRequest{
			{ProductID: phoneID, Quantity: qty(1)},
			{ProductID: laptopID, Quantity: qty(1)},
		},
	})

	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindValidationFailed, ce.Kind)
	require.Len(t, ce.Violations, 1)
	assert.Equal(t, "products[1].price", ce.Violations[0].Field)

	orders, _ := countRows(t, db)
	assert.Zero(t, orders)
}

func TestCreateOrder_PriceFreezing(t *testing.T) {
	client, cs := newCatalogClient(t, map[string]string{phoneID: "1999.99"})
	svc, _ := newTestOrderService(t, client)
	ctx := context.Background()

	id, err := svc.CreateOrder(ctx, models.OrderRequest{
		DeliveryAddress: "Baker Street 221B",
		Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(1)}},
	})
	require.NoError(t, err)

	cs.set(phoneID, "2500.00")

	order, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(199999), order.Items[0].PriceCents)

	second, err := svc.CreateOrder(ctx, models.OrderRequest{
		DeliveryAddress: "Baker Street 221B",
		Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(1)}},
	})
	require.NoError(t, err)

	order, err = svc.GetOrder(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), order.Items[0].PriceCents, "new orders see the new price")
}

func TestCreateOrder_ReadBack(t *testing.T) {
	stub := newStubCatalog().price(phoneID, "19.99").price(laptopID, "10.005")
	svc, _ := newTestOrderService(t, stub)
	ctx := context.Background()

	id, err := svc.CreateOrder(ctx, models.OrderRequest{
		DeliveryAddress: "<b>Baker Street</b> 221B",
		Products: []models.OrderItemRequest{
			{ProductID: laptopID, Quantity: qty(3)},
			{ProductID: phoneID, Quantity: qty(1)},
			{ProductID: strings.ToUpper(laptopID), Quantity: qty(2)},
		},
	})
	require.NoError(t, err)

	order, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Baker Street 221B", order.DeliveryAddress)
	require.Len(t, order.Items, 3)

	type line struct {
		productID string
		quantity  int
		cents     int64
	}
	got := make([]line, 0, len(order.Items))
	for _, item := range order.Items {
		assert.Equal(t, id, item.OrderID)
		got = append(got, line{item.ProductID, item.Quantity, item.PriceCents})
	}
	assert.Equal(t, []line{
		{laptopID, 3, 1001},
		{phoneID, 1, 1999},
		{laptopID, 2, 1001},
	}, got)
}

func TestCreateOrder_StorageFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*failingOrders)
	}{
		{"begin fails", func(f *failingOrders) { f.failBegin = true }},
		{"second item insert fails", func(f *failingOrders) { f.failItem = true }},
		{"commit fails", func(f *failingOrders) { f.failCommit = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openDB(t)
			orders := &failingOrders{SQLOrderRepository: repository.NewSQLOrderRepository(db)}
			tt.setup(orders)

			stub := newStubCatalog().price(phoneID, "10.00").price(laptopID, "20.00")
			svc := NewOrderService(orders, stub, logger.Discard())

			_, err := svc.CreateOrder(context.Background(), models.OrderRequest{
				DeliveryAddress: "Baker Street 221B",
				Products: []models.OrderItemRequest{
					{ProductID: phoneID, Quantity: qty(1)},
					{ProductID: laptopID, Quantity: qty(1)},
				},
			})

			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, KindStorageFailure, kind)

			n, items := countRows(t, db)
			assert.Zero(t, n)
			assert.Zero(t, items)
		})
	}
}

func TestOrderService_ReadUpdateDelete(t *testing.T) {
	stub := newStubCatalog().price(phoneID, "10.00").price(laptopID, "20.00")
	svc, _ := newTestOrderService(t, stub)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, models.OrderRequest{
		DeliveryAddress: "First Street 1",
		Products:        []models.OrderItemRequest{{ProductID: phoneID, Quantity: qty(1)}},
	})
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, models.OrderRequest{
		DeliveryAddress: "Second Street 2",
		Products:        []models.OrderItemRequest{{ProductID: laptopID, Quantity: qty(1)}},
	})
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.SearchByProductID(ctx, laptopID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, second, found[0].ID)

	_, err = svc.SearchByProductID(ctx, "laptop")
	assert.ErrorIs(t, err, ErrInvalidID)

	require.NoError(t, svc.UpdateDeliveryAddress(ctx, first, "<i>Third</i> Street 3"))
	order, err := svc.GetOrder(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Third Street 3", order.DeliveryAddress)

	var verr *ValidationError
	err = svc.UpdateDeliveryAddress(ctx, first, "<p>abc</p>")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "deliveryAddress", verr.Violations[0].Field)

	assert.ErrorIs(t, svc.UpdateDeliveryAddress(ctx, ghostID, "Valid Street 1"), repository.ErrOrderNotFound)
	assert.ErrorIs(t, svc.UpdateDeliveryAddress(ctx, "42", "Valid Street 1"), ErrInvalidID)

	require.NoError(t, svc.DeleteOrder(ctx, first))
	_, err = svc.GetOrder(ctx, first)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
	assert.ErrorIs(t, svc.DeleteOrder(ctx, first), repository.ErrOrderNotFound)

	_, err = svc.GetOrder(ctx, "42")
	assert.ErrorIs(t, err, ErrInvalidID)
}
