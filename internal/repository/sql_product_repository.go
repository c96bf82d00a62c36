package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/database"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

// SQLProductRepository implements ProductRepository on SQLite or PostgreSQL.
// Categories are stored as a JSON array.
type SQLProductRepository struct {
	db *database.DB
}

// NewSQLProductRepository creates a product repository over db
func NewSQLProductRepository(db *database.DB) *SQLProductRepository {
	return &SQLProductRepository{db: db}
}

var _ ProductRepository = (*SQLProductRepository)(nil)

const selectProducts = `
	SELECT id, name, description, price, categories, created_at
	FROM   products`

func (r *SQLProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	return r.query(ctx, selectProducts+` ORDER BY created_at, id`)
}

func (r *SQLProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	products, err := r.query(ctx, selectProducts+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return &products[0], nil
}

func (r *SQLProductRepository) SearchByName(ctx context.Context, name string) ([]models.Product, error) {
	return r.query(ctx, selectProducts+` WHERE LOWER(name) LIKE LOWER(?) ORDER BY name`, "%"+name+"%")
}

func (r *SQLProductRepository) Create(ctx context.Context, product *models.Product) error {
	categories, err := encodeCategories(product.Categories)
	if err != nil {
		return err
	}

	q := r.db.Rebind(`
		INSERT INTO products (id, name, description, price, categories, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, q,
		product.ID, product.Name, product.Description, product.PriceCents,
		categories, database.Timestamp(product.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert product %s: %w", product.ID, err)
	}
	return nil
}

func (r *SQLProductRepository) Update(ctx context.Context, product *models.Product) error {
	categories, err := encodeCategories(product.Categories)
	if err != nil {
		return err
	}

	q := r.db.Rebind(`
		UPDATE products
		SET    name = ?, description = ?, price = ?, categories = ?
		WHERE  id = ?`)
	res, err := r.db.ExecContext(ctx, q,
		product.Name, product.Description, product.PriceCents, categories, product.ID)
	if err != nil {
		return fmt.Errorf("update product %s: %w", product.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product %s: %w", product.ID, err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *SQLProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *SQLProductRepository) query(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var (
			p          models.Product
			categories string
			createdAt  string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &categories, &createdAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
			return nil, fmt.Errorf("decode categories of product %s: %w", p.ID, err)
		}
		if p.CreatedAt, err = database.ParseTimestamp(createdAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func encodeCategories(categories []string) (string, error) {
	if categories == nil {
		categories = []string{}
	}
	b, err := json.Marshal(categories)
	if err != nil {
		return "", fmt.Errorf("encode categories: %w", err)
	}
	return string(b), nil
}
