package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
)

var orderCreateTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_create_total",
		Help: "Order creation attempts by outcome",
	},
	[]string{"outcome"},
)

// OrderService handles order business logic. CreateOrder runs the creation
// pipeline: assemble priced items, validate, then commit in one transaction.
type OrderService struct {
	orders    repository.OrderRepository
	assembler *ItemAssembler
	validator OrderValidator
	committer OrderCommitter
	log       *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders repository.OrderRepository, prices PriceLookup, log *slog.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		assembler: NewItemAssembler(prices, log),
		log:       log,
	}
}

// CreateOrderFromJSON parses a create-order body and runs CreateOrder on it
func (s *OrderService) CreateOrderFromJSON(ctx context.Context, body io.Reader) (string, error) {
	req, err := ParseOrderRequest(body)
	if err != nil {
		var ce *CreateError
		if errors.As(err, &ce) {
			return "", s.reject(s.log, ce)
		}
		return "", err
	}
	return s.CreateOrder(ctx, req)
}

// CreateOrder prices, validates and stores the requested order and returns
// its id. Every failure is a *CreateError and leaves nothing persisted.
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderRequest) (string, error) {
	order := models.NewOrder(SanitizeAddress(req.DeliveryAddress))
	log := s.log.With("order_id", order.ID)
	log.Debug("order request parsed", "items", len(req.Products))

	for i, itemReq := range req.Products {
		log.Debug("assembling order item", "item_index", i)

		if ce := s.assembler.Assemble(ctx, order, i, itemReq); ce != nil {
			if ce.Kind == KindInvalidItem {
				ce = withAddressViolations(ce, order.DeliveryAddress)
			}
			return "", s.reject(log, ce)
		}
	}

	if violations := s.validator.Validate(order); len(violations) > 0 {
		return "", s.reject(log, validationFailed(violations))
	}
	log.Debug("order validated", "items", len(order.Items))

	id, err := s.commit(ctx, order)
	if err != nil {
		return "", s.reject(log, &CreateError{
			Kind:      KindStorageFailure,
			Message:   "failed to store order",
			ItemIndex: -1,
			Err:       err,
		})
	}

	orderCreateTotal.WithLabelValues("created").Inc()
	log.Info("order created", "items", len(order.Items))
	return id, nil
}

// commit opens the transaction, writes the order and commits; any failure rolls back
func (s *OrderService) commit(ctx context.Context, order *models.Order) (string, error) {
	tx, err := s.orders.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("failed to roll back order", "order_id", order.ID, "error", rbErr)
		}
	}()

	id, err := s.committer.Commit(ctx, tx, order)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *OrderService) reject(log *slog.Logger, ce *CreateError) error {
	orderCreateTotal.WithLabelValues(ce.Kind.String()).Inc()

	attrs := []any{"kind", ce.Kind.String(), "reason", ce.Message}
	if ce.ItemIndex >= 0 {
		attrs = append(attrs, "item_index", ce.ItemIndex)
	}
	if ce.Err != nil {
		attrs = append(attrs, "error", ce.Err)
	}

	switch ce.Kind {
	case KindRemoteServerError, KindRemoteRedirect, KindRemoteTransport, KindStorageFailure:
		log.Error("order rejected", attrs...)
	default:
		log.Warn("order rejected", attrs...)
	}
	return ce
}

// withAddressViolations folds order-level address violations into a
// structural item failure, so the client sees every problem found so far
func withAddressViolations(ce *CreateError, address string) *CreateError {
	addressViolations := ValidateAddress(address)
	if len(addressViolations) == 0 {
		return ce
	}

	combined := validationFailed(append(addressViolations, ce.Violations...))
	combined.ItemIndex = ce.ItemIndex
	combined.ProductID = ce.ProductID
	return combined
}

// GetOrder returns one order with its items
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

// ListOrders returns every order with its items
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.GetAll(ctx)
}

// SearchByProductID returns the orders that contain productID
func (s *OrderService) SearchByProductID(ctx context.Context, productID string) ([]models.Order, error) {
	productID, err := parseID(productID)
	if err != nil {
		return nil, err
	}
	return s.orders.FindByProductID(ctx, productID)
}

// UpdateDeliveryAddress replaces the address of an order after sanitizing it
func (s *OrderService) UpdateDeliveryAddress(ctx context.Context, id, address string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	address = SanitizeAddress(address)
	if violations := ValidateAddress(address); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	if err := s.orders.UpdateDeliveryAddress(ctx, id, address); err != nil {
		return err
	}
	s.log.Info("order address updated", "order_id", id)
	return nil
}

// DeleteOrder removes an order together with its items
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("order deleted", "order_id", id)
	return nil
}
