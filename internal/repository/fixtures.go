package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

//go:embed fixtures/products.yaml
var embeddedFixtures []byte

type fixtureFile struct {
	Products []fixtureProduct `yaml:"products"`
}

type fixtureProduct struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Categories  []string `yaml:"categories"`
}

// LoadFixtures reads seed products from path, or the embedded set when path is empty
func LoadFixtures(path string) ([]models.Product, error) {
	data := embeddedFixtures
	name := "embedded fixtures"
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read fixtures: %w", err)
		}
		name = path
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	products := make([]models.Product, 0, len(file.Products))
	for i, fp := range file.Products {
		id, err := uuid.Parse(fp.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: product %d: invalid id %q", name, i, fp.ID)
		}
		price, err := decimal.NewFromString(fp.Price)
		if err != nil {
			return nil, fmt.Errorf("%s: product %d: invalid price %q", name, i, fp.Price)
		}
		products = append(products, models.Product{
			ID:          id.String(),
			Name:        fp.Name,
			Description: fp.Description,
			PriceCents:  models.ToCents(price),
			Categories:  fp.Categories,
			CreatedAt:   now.Add(time.Duration(i) * time.Microsecond),
		})
	}

	return products, nil
}

// Seed writes products that repo does not hold yet and reports how many were added
func Seed(ctx context.Context, repo ProductRepository, products []models.Product) (int, error) {
	added := 0
	for i := range products {
		_, err := repo.GetByID(ctx, products[i].ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrProductNotFound) {
			return added, fmt.Errorf("seed product %s: %w", products[i].ID, err)
		}
		if err := repo.Create(ctx, &products[i]); err != nil {
			return added, fmt.Errorf("seed product %s: %w", products[i].ID, err)
		}
		added++
	}
	return added, nil
}
