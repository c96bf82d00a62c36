package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
)

var maxProductPrice = decimal.NewFromInt(100_000_000)

// ProductService handles business logic for products
type ProductService struct {
	repo repository.ProductRepository
	log  *slog.Logger
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository, log *slog.Logger) *ProductService {
	return &ProductService{
		repo: repo,
		log:  log,
	}
}

// ListProducts returns all available products
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// SearchProducts finds products whose name contains name
func (s *ProductService) SearchProducts(ctx context.Context, name string) ([]models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Violations: []models.Violation{{Field: "name", Message: "name query parameter is required"}}}
	}
	return s.repo.SearchByName(ctx, name)
}

// CreateProduct validates req and stores it as a new product
func (s *ProductService) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	product := &models.Product{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := applyProductRequest(product, req); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info("product created", "product_id", product.ID, "price", product.Price().StringFixed(2))
	return product, nil
}

// UpdateProduct replaces every mutable field of an existing product
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req models.ProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductRequest(product, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info("product updated", "product_id", product.ID, "price", product.Price().StringFixed(2))
	return product, nil
}

// DeleteProduct removes a product from the catalog. Orders keep their frozen prices.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "product_id", id)
	return nil
}

// applyProductRequest validates req and copies it onto p
func applyProductRequest(p *models.Product, req models.ProductRequest) error {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)

	var violations []models.Violation
	add := func(field, format string, args ...any) {
		violations = append(violations, models.Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if n := utf8.RuneCountInString(name); n < 3 || n > 255 {
		add("name", "name must be between 3 and 255 characters")
	}
	if utf8.RuneCountInString(description) > 1000 {
		add("description", "description must be at most 1000 characters")
	}

	var cents int64
	switch {
	case req.Price == nil:
		add("price", "price is required")
	case req.Price.GreaterThan(maxProductPrice):
		add("price", "price must not exceed %s", maxProductPrice.String())
	default:
		if cents = models.ToCents(*req.Price); cents <= 0 {
			add("price", "price must be positive")
		}
	}

	categories := make([]string, 0, len(req.Categories))
	if len(req.Categories) == 0 {
		add("categories", "at least one category is required")
	}
	for i, c := range req.Categories {
		c = strings.TrimSpace(c)
		switch {
		case c == "":
			add(fmt.Sprintf("categories[%d]", i), "category must not be blank")
		case utf8.RuneCountInString(c) > 100:
			add(fmt.Sprintf("categories[%d]", i), "category must be at most 100 characters")
		}
		categories = append(categories, c)
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	p.Name = name
	p.Description = description
	p.PriceCents = cents
	p.Categories = categories
	return nil
}
