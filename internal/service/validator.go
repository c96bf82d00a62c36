package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

const (
	minAddressLength = 5
	maxAddressLength = 255
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeAddress strips HTML tags and surrounding whitespace
func SanitizeAddress(address string) string {
	stripped := tagPattern.ReplaceAllString(address, "")
	return strings.TrimSpace(stripped)
}

// ValidateAddress checks a sanitized delivery address
func ValidateAddress(address string) []models.Violation {
	if address == "" {
		return []models.Violation{{Field: "deliveryAddress", Message: "deliveryAddress must not be blank"}}
	}
	if n := utf8.RuneCountInString(address); n < minAddressLength || n > maxAddressLength {
		return []models.Violation{{
			Field:   "deliveryAddress",
			Message: fmt.Sprintf("deliveryAddress must be between %d and %d characters", minAddressLength, maxAddressLength),
		}}
	}
	return nil
}

// OrderValidator checks a fully assembled candidate order. It reports every
// violated rule; prices are checked in a second pass after the structure.
type OrderValidator struct{}

func (OrderValidator) Validate(order *models.Order) []models.Violation {
	violations := ValidateAddress(order.DeliveryAddress)

	if len(order.Items) == 0 {
		violations = append(violations, models.Violation{
			Field:   "products",
			Message: "order must contain at least one product",
		})
	}
	for i, item := range order.Items {
		if item.Quantity <= 0 {
			violations = append(violations, models.Violation{
				Field:   fmt.Sprintf("products[%d].quantity", i),
				Message: "quantity must be a positive integer",
			})
		}
	}

	for i, item := range order.Items {
		if item.PriceCents <= 0 {
			violations = append(violations, models.Violation{
				Field:   fmt.Sprintf("products[%d].price", i),
				Message: "price must be positive",
			})
		}
	}

	return violations
}
