package repository

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderTx is one unit of work over the order store. Nothing written through
// it is visible until Commit; Rollback after Commit is a no-op.
type OrderTx interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	InsertItem(ctx context.Context, item models.OrderItem, position int) error
	Commit() error
	Rollback() error
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Begin(ctx context.Context) (OrderTx, error)
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	FindByProductID(ctx context.Context, productID string) ([]models.Order, error)
	UpdateDeliveryAddress(ctx context.Context, id, address string) error
	Delete(ctx context.Context, id string) error
}
