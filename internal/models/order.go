package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderRequest represents an incoming order creation request.
// The item list travels under "products", as existing clients send it.
type OrderRequest struct {
	DeliveryAddress string             `json:"deliveryAddress"`
	Products        []OrderItemRequest `json:"products"`
}

// OrderItemRequest is one requested line. Quantity is a pointer so a missing
// value can be told apart from zero.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// UpdateOrderRequest carries the only mutable field of an order
type UpdateOrderRequest struct {
	DeliveryAddress string `json:"deliveryAddress"`
}

// Order is the persisted aggregate root. CreatedAt is set once by NewOrder.
type Order struct {
	ID              string      `json:"id"`
	DeliveryAddress string      `json:"deliveryAddress"`
	Items           []OrderItem `json:"orderItems"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// NewOrder creates an empty candidate order with a fresh identifier
func NewOrder(deliveryAddress string) *Order {
	return &Order{
		ID:              uuid.NewString(),
		DeliveryAddress: deliveryAddress,
		Items:           make([]OrderItem, 0),
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

// AddItem attaches a priced line to the order and returns it
func (o *Order) AddItem(productID string, quantity int, priceCents int64) OrderItem {
	item := OrderItem{
		ID:         uuid.NewString(),
		OrderID:    o.ID,
		ProductID:  productID,
		Quantity:   quantity,
		PriceCents: priceCents,
	}
	o.Items = append(o.Items, item)
	return item
}

// OrderItem is a line owned by exactly one order. PriceCents is the unit
// price frozen when the order was created.
type OrderItem struct {
	ID         string
	OrderID    string
	ProductID  string
	Quantity   int
	PriceCents int64
}

// Price returns the frozen unit price as a decimal
func (i OrderItem) Price() decimal.Decimal {
	return FromCents(i.PriceCents)
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string      `json:"id"`
		ProductID string      `json:"productId"`
		Quantity  int         `json:"quantity"`
		Price     json.Number `json:"price"`
	}{
		ID:        i.ID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Price:     centsJSON(i.PriceCents),
	})
}

// Violation is one failed validation rule, addressed by request field path
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
