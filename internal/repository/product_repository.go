package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	SearchByName(ctx context.Context, name string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewInMemoryProductRepository creates an in-memory product repository holding seed
func NewInMemoryProductRepository(seed ...models.Product) *InMemoryProductRepository {
	products := make(map[string]models.Product, len(seed))
	for _, p := range seed {
		products[p.ID] = cloneProduct(p)
	}

	return &InMemoryProductRepository{
		products: products,
	}
}

var _ ProductRepository = (*InMemoryProductRepository)(nil)

// GetAll returns all products, oldest first
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, cloneProduct(product))
	}
	sort.Slice(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.Before(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	product = cloneProduct(product)
	return &product, nil
}

// SearchByName returns products whose name contains name, case-insensitively, ordered by name
func (r *InMemoryProductRepository) SearchByName(ctx context.Context, name string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(name)
	products := make([]models.Product, 0)
	for _, product := range r.products {
		if strings.Contains(strings.ToLower(product.Name), needle) {
			products = append(products, cloneProduct(product))
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (r *InMemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = cloneProduct(*product)
	return nil
}

func (r *InMemoryProductRepository) Update(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; !exists {
		return ErrProductNotFound
	}
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

func (r *InMemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// cloneProduct detaches the categories slice from the caller's copy
func cloneProduct(p models.Product) models.Product {
	p.Categories = append([]string(nil), p.Categories...)
	return p
}
