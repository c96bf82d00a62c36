package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/catalog"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

// PriceLookup resolves the authoritative price of a product
type PriceLookup interface {
	LookupPrice(ctx context.Context, productID string) catalog.PriceResult
}

// maxQuantity matches the 32-bit quantity column
const maxQuantity = math.MaxInt32

// ItemAssembler turns requested lines into priced order items
type ItemAssembler struct {
	prices PriceLookup
	log    *slog.Logger
}

// NewItemAssembler creates an assembler that prices items through prices
func NewItemAssembler(prices PriceLookup, log *slog.Logger) *ItemAssembler {
	return &ItemAssembler{prices: prices, log: log}
}

// Assemble checks the line at index, looks up its price and attaches the
// priced item to order. A failing line is never attached.
func (a *ItemAssembler) Assemble(ctx context.Context, order *models.Order, index int, req models.OrderItemRequest) *CreateError {
	productID, violation := checkItem(index, req)
	if violation != nil {
		return &CreateError{
			Kind:       KindInvalidItem,
			Message:    violation.Message,
			ItemIndex:  index,
			ProductID:  req.ProductID,
			Violations: []models.Violation{*violation},
		}
	}

	result := a.prices.LookupPrice(ctx, productID)
	if !result.Found() {
		return lookupError(index, productID, result)
	}

	item := order.AddItem(productID, *req.Quantity, models.ToCents(result.Price))
	a.log.Debug("order item priced",
		"order_id", order.ID,
		"item_index", index,
		"product_id", productID,
		"quantity", item.Quantity,
		"price", item.Price().StringFixed(2),
	)
	return nil
}

// checkItem validates the shape of one line without any remote call and
// returns the canonical product id
func checkItem(index int, req models.OrderItemRequest) (string, *models.Violation) {
	field := func(name string) string {
		return fmt.Sprintf("products[%d].%s", index, name)
	}

	if strings.TrimSpace(req.ProductID) == "" {
		return "", &models.Violation{Field: field("productId"), Message: "productId is required"}
	}
	id, err := parseID(req.ProductID)
	if err != nil {
		return "", &models.Violation{Field: field("productId"), Message: "productId must be a valid UUID"}
	}

	if req.Quantity == nil {
		return "", &models.Violation{Field: field("quantity"), Message: "quantity is required"}
	}
	if *req.Quantity <= 0 {
		return "", &models.Violation{Field: field("quantity"), Message: "quantity must be a positive integer"}
	}
	if *req.Quantity > maxQuantity {
		return "", &models.Violation{Field: field("quantity"), Message: fmt.Sprintf("quantity must not exceed %d", maxQuantity)}
	}

	return id, nil
}

func lookupError(index int, productID string, result catalog.PriceResult) *CreateError {
	e := &CreateError{ItemIndex: index, ProductID: productID, Err: result.Err}

	switch result.Outcome {
	case catalog.OutcomeNotFound:
		e.Kind = KindProductNotFound
		e.Message = fmt.Sprintf("product %s not found", productID)
	case catalog.OutcomeClientError:
		e.Kind = KindRemoteClientError
		e.Message = fmt.Sprintf("product service rejected the lookup with status %d", result.StatusCode)
	case catalog.OutcomeRedirect:
		e.Kind = KindRemoteRedirect
		e.Message = "product service answered with an unexpected redirect"
	case catalog.OutcomeTransport:
		e.Kind = KindRemoteTransport
		e.Message = "product service is unreachable"
	case catalog.OutcomeDecode:
		e.Kind = KindRemoteDecode
		e.Message = "product service returned an unreadable product"
	default:
		e.Kind = KindRemoteServerError
		e.Message = "product service failed"
	}
	return e
}

// parseID accepts only the canonical 36 character UUID form and returns it lower-cased
func parseID(raw string) (string, error) {
	if len(raw) != 36 {
		return "", ErrInvalidID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidID
	}
	return id.String(), nil
}
