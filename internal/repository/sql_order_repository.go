package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/database"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

// SQLOrderRepository implements OrderRepository on SQLite or PostgreSQL
type SQLOrderRepository struct {
	db *database.DB
}

// NewSQLOrderRepository creates an order repository over db
func NewSQLOrderRepository(db *database.DB) *SQLOrderRepository {
	return &SQLOrderRepository{db: db}
}

var _ OrderRepository = (*SQLOrderRepository)(nil)

const selectItems = `
	SELECT id, order_id, product_id, quantity, price
	FROM   order_items`

// Begin opens a transaction for writing one order aggregate
func (r *SQLOrderRepository) Begin(ctx context.Context) (OrderTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &sqlOrderTx{tx: tx, dialect: r.db.Dialect}, nil
}

type sqlOrderTx struct {
	tx      *sql.Tx
	dialect database.Dialect
}

func (t *sqlOrderTx) InsertOrder(ctx context.Context, order *models.Order) error {
	q := database.Rebind(t.dialect, `
		INSERT INTO orders (id, delivery_address, created_at)
		VALUES (?, ?, ?)`)

	if _, err := t.tx.ExecContext(ctx, q, order.ID, order.DeliveryAddress, database.Timestamp(order.CreatedAt)); err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	return nil
}

func (t *sqlOrderTx) InsertItem(ctx context.Context, item models.OrderItem, position int) error {
	q := database.Rebind(t.dialect, `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, position)
		VALUES (?, ?, ?, ?, ?, ?)`)

	if _, err := t.tx.ExecContext(ctx, q, item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceCents, position); err != nil {
		return fmt.Errorf("insert order item %s: %w", item.ID, err)
	}
	return nil
}

func (t *sqlOrderTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (t *sqlOrderTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// GetAll returns every order with its items, oldest first
func (r *SQLOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	orders, err := r.queryOrders(ctx, `
		SELECT id, delivery_address, created_at
		FROM   orders
		ORDER  BY created_at, id`)
	if err != nil {
		return nil, err
	}

	items, err := r.queryItems(ctx, selectItems+` ORDER BY order_id, position`)
	if err != nil {
		return nil, err
	}

	return attachItems(orders, items), nil
}

// GetByID returns one order with its items
func (r *SQLOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	orders, err := r.queryOrders(ctx, `
		SELECT id, delivery_address, created_at
		FROM   orders
		WHERE  id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}

	items, err := r.queryItems(ctx, selectItems+` WHERE order_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}

	order := attachItems(orders, items)[0]
	return &order, nil
}

// FindByProductID returns the orders that contain productID, with all their items
func (r *SQLOrderRepository) FindByProductID(ctx context.Context, productID string) ([]models.Order, error) {
	orders, err := r.queryOrders(ctx, `
		SELECT id, delivery_address, created_at
		FROM   orders
		WHERE  id IN (SELECT order_id FROM order_items WHERE product_id = ?)
		ORDER  BY created_at, id`, productID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.queryItems(ctx, selectItems+`
		WHERE order_id IN (SELECT order_id FROM order_items WHERE product_id = ?)
		ORDER BY order_id, position`, productID)
	if err != nil {
		return nil, err
	}

	return attachItems(orders, items), nil
}

// UpdateDeliveryAddress replaces the address of an existing order
func (r *SQLOrderRepository) UpdateDeliveryAddress(ctx context.Context, id, address string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE orders SET delivery_address = ? WHERE id = ?`), address, id)
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete removes the items and then the order inside one transaction
func (r *SQLOrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM order_items WHERE order_id = ?`), id); err != nil {
		return fmt.Errorf("delete items of order %s: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM orders WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete of order %s: %w", id, err)
	}
	return nil
}

func (r *SQLOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		var (
			order     models.Order
			createdAt string
		)
		if err := rows.Scan(&order.ID, &order.DeliveryAddress, &createdAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if order.CreatedAt, err = database.ParseTimestamp(createdAt); err != nil {
			return nil, err
		}
		order.Items = make([]models.OrderItem, 0)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (r *SQLOrderRepository) queryItems(ctx context.Context, query string, args ...any) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.PriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

// attachItems distributes items onto their orders, keeping item order
func attachItems(orders []models.Order, items []models.OrderItem) []models.Order {
	index := make(map[string]int, len(orders))
	for i := range orders {
		index[orders[i].ID] = i
	}
	for _, item := range items {
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders
}
