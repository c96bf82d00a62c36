package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/catalog"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/config"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/database"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
	"github.com/Lixing-Zhang/ecommerce-backend/pkg/logger"
)

const (
	phoneID  = "550e8400-e29b-41d4-a716-446655440000"
	laptopID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	ghostID  = "9c858901-8a57-4791-81fe-4c455b099bc9"
)

func qty(n int) *int { return &n }

// stubCatalog answers lookups from a fixed table; unknown ids are not found
type stubCatalog struct {
	mu      sync.Mutex
	results map[string]catalog.PriceResult
	calls   []string
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{results: map[string]catalog.PriceResult{}}
}

func (c *stubCatalog) price(id, price string) *stubCatalog {
	c.results[id] = catalog.PriceResult{
		Outcome:    catalog.OutcomeFound,
		Price:      decimal.RequireFromString(price),
		StatusCode: 200,
	}
	return c
}

func (c *stubCatalog) fail(id string, outcome catalog.Outcome, status int) *stubCatalog {
	c.results[id] = catalog.PriceResult{Outcome: outcome, StatusCode: status, Err: errors.New("boom")}
	return c
}

func (c *stubCatalog) LookupPrice(_ context.Context, id string) catalog.PriceResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, id)
	if r, ok := c.results[id]; ok {
		return r
	}
	return catalog.PriceResult{Outcome: catalog.OutcomeNotFound, StatusCode: 404, Err: errors.New("not found")}
}

func openDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

// countRows returns how many orders and order items are stored
func countRows(t *testing.T, db *database.DB) (orders, items int) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orders))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items`).Scan(&items))
	return orders, items
}

func newTestOrderService(t *testing.T, prices PriceLookup) (*OrderService, *database.DB) {
	t.Helper()

	db := openDB(t)
	return NewOrderService(repository.NewSQLOrderRepository(db), prices, logger.Discard()), db
}

// failingOrders wraps a real repository and breaks one step of the write path
type failingOrders struct {
	*repository.SQLOrderRepository
	failBegin  bool
	failItem   bool
	failCommit bool
}

func (f *failingOrders) Begin(ctx context.Context) (repository.OrderTx, error) {
	if f.failBegin {
		return nil, errors.New("database is locked")
	}
	tx, err := f.SQLOrderRepository.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{OrderTx: tx, failItem: f.failItem, failCommit: f.failCommit}, nil
}

type failingTx struct {
	repository.OrderTx
	failItem   bool
	failCommit bool
}

func (tx *failingTx) InsertItem(ctx context.Context, item models.OrderItem, position int) error {
	if tx.failItem && position > 0 {
		return errors.New("disk I/O error")
	}
	return tx.OrderTx.InsertItem(ctx, item, position)
}

func (tx *failingTx) Commit() error {
	if tx.failCommit {
		return errors.New("commit refused")
	}
	return tx.OrderTx.Commit()
}
