package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. The price is held in cents.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Categories  []string
	CreatedAt   time.Time
}

// Price returns the current catalog price as a decimal
func (p Product) Price() decimal.Decimal {
	return FromCents(p.PriceCents)
}

func (p Product) MarshalJSON() ([]byte, error) {
	categories := p.Categories
	if categories == nil {
		categories = []string{}
	}
	return json.Marshal(struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		Description string      `json:"description,omitempty"`
		Price       json.Number `json:"price"`
		Categories  []string    `json:"categories"`
		CreatedAt   time.Time   `json:"createdAt"`
	}{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       centsJSON(p.PriceCents),
		Categories:  categories,
		CreatedAt:   p.CreatedAt,
	})
}

// ProductRequest is the body accepted by product create and update
type ProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Categories  []string         `json:"categories"`
}
