package service

import (
	"context"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
)

// OrderCommitter writes a validated order inside a caller-owned transaction.
// It does no business validation and neither commits nor rolls back.
type OrderCommitter struct{}

func (OrderCommitter) Commit(ctx context.Context, tx repository.OrderTx, order *models.Order) (string, error) {
	if err := tx.InsertOrder(ctx, order); err != nil {
		return "", err
	}
	for i, item := range order.Items {
		if err := tx.InsertItem(ctx, item, i); err != nil {
			return "", err
		}
	}
	return order.ID, nil
}
